package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/ports"
	"github.com/tidwall/gjson"
)

const maxPageSize = 100

type Service struct {
	exec ports.RequestExecutor
	bulk *Orchestrator
}

func NewService(exec ports.RequestExecutor, bulk *Orchestrator) *Service {
	if bulk == nil {
		bulk = NewOrchestrator(exec)
	}

	return &Service{exec: exec, bulk: bulk}
}

// WithBulk returns a Service whose bulk runs use extra orchestrator options.
func (s *Service) WithBulk(opts ...OrchestratorOption) *Service {
	return &Service{exec: s.exec, bulk: s.bulk.With(opts...)}
}

func (s *Service) CreateLink(ctx context.Context, req domain.CreateLinkRequest) (domain.Link, error) {
	if err := req.Validate(); err != nil {
		return domain.Link{}, err
	}

	outcome, err := s.exec.Do(ctx, createLinkRequest(req))
	if err != nil {
		return domain.Link{}, err
	}
	if !outcome.OK() {
		return domain.Link{}, &domain.APIError{Outcome: outcome}
	}

	return DecodeLink(outcome)
}

// CreateLinks creates every request as its own call. Requests that fail
// local validation are never sent; the caller is expected to filter them.
func (s *Service) CreateLinks(ctx context.Context, reqs []domain.CreateLinkRequest) (domain.BulkSummary, error) {
	items := make([]BulkItem, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, BulkItem{Identifier: req.Identifier(), Request: createLinkRequest(req)})
	}

	return s.bulk.Run(ctx, items, BulkOptions{})
}

func (s *Service) GetLink(ctx context.Context, id string) (domain.Link, error) {
	return s.fetchLink(ctx, domain.APIRequest{Method: http.MethodGet, Path: "/links/" + url.PathEscape(id)})
}

// ResolveLink finds a link by ID, then by domain and key, then by external
// ID. It returns domain.ErrLinkNotFound when no lookup matches.
func (s *Service) ResolveLink(ctx context.Context, ref string, domainName string) (domain.Link, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Link{}, errors.New("link reference is empty")
	}

	var lookups []domain.APIRequest
	if domain.LooksLikeLinkID(ref) {
		lookups = append(lookups, domain.APIRequest{Method: http.MethodGet, Path: "/links/" + url.PathEscape(ref)})
	}
	if domainName != "" {
		lookups = append(lookups, domain.APIRequest{
			Method: http.MethodGet,
			Path:   "/links/info",
			Query:  url.Values{"domain": {domainName}, "key": {ref}},
		})
	}
	lookups = append(lookups, domain.APIRequest{
		Method: http.MethodGet,
		Path:   "/links/info",
		Query:  url.Values{"externalId": {ref}},
	})

	for _, lookup := range lookups {
		link, err := s.fetchLink(ctx, lookup)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrLinkNotFound) {
			return domain.Link{}, err
		}
	}

	return domain.Link{}, fmt.Errorf("%w: %s", domain.ErrLinkNotFound, ref)
}

func (s *Service) ResolveLinks(ctx context.Context, query ResolveLinksQuery) (ResolvedLinks, error) {
	var resolved ResolvedLinks
	for _, ref := range query.Refs {
		link, err := s.ResolveLink(ctx, ref, query.Domain)
		if err != nil {
			if errors.Is(err, domain.ErrLinkNotFound) {
				resolved.Missing = append(resolved.Missing, ref)
				continue
			}
			return ResolvedLinks{}, err
		}
		resolved.Found = append(resolved.Found, link)
	}
	return resolved, nil
}

func (s *Service) DeleteLinks(ctx context.Context, cmd DeleteLinksCommand) (domain.BulkSummary, error) {
	items := make([]BulkItem, 0, len(cmd.Links))
	for _, link := range cmd.Links {
		identifier := link.ShortLink
		if identifier == "" {
			identifier = link.ID
		}
		items = append(items, BulkItem{
			Identifier: identifier,
			Request:    domain.APIRequest{Method: http.MethodDelete, Path: "/links/" + url.PathEscape(link.ID)},
		})
	}

	return s.bulk.Run(ctx, items, BulkOptions{NotFoundIsSuccess: cmd.Idempotent})
}

// ListLinks pages through /links until the filter's limit is reached or the
// server runs out of links. A zero limit means all links.
func (s *Service) ListLinks(ctx context.Context, filter domain.ListLinksFilter) ([]domain.Link, error) {
	sort := filter.Sort
	if sort == "" {
		sort = domain.SortCreatedAt
	}
	if !sort.Valid() {
		return nil, fmt.Errorf("invalid sort %q: use createdAt, clicks or updatedAt", sort)
	}

	pageSize := maxPageSize
	if filter.Limit > 0 && filter.Limit < pageSize {
		pageSize = filter.Limit
	}

	var links []domain.Link
	for page := 1; ; page++ {
		query := url.Values{
			"sort":     {string(sort)},
			"page":     {strconv.Itoa(page)},
			"pageSize": {strconv.Itoa(pageSize)},
		}
		if filter.Domain != "" {
			query.Set("domain", filter.Domain)
		}
		if len(filter.Tags) > 0 {
			query.Set("tagNames", strings.Join(filter.Tags, ","))
		}
		if filter.Search != "" {
			query.Set("search", filter.Search)
		}

		outcome, err := s.exec.Do(ctx, domain.APIRequest{Method: http.MethodGet, Path: "/links", Query: query})
		if err != nil {
			return nil, err
		}
		if !outcome.OK() {
			return nil, &domain.APIError{Outcome: outcome}
		}

		var batch []domain.Link
		if len(outcome.Body) > 0 {
			if err := json.Unmarshal(outcome.Body, &batch); err != nil {
				return nil, fmt.Errorf("decode links page %d: %w", page, err)
			}
		}

		links = append(links, batch...)
		if filter.Limit > 0 && len(links) >= filter.Limit {
			return links[:filter.Limit], nil
		}
		if len(batch) < pageSize {
			return links, nil
		}
	}
}

func (s *Service) WhoAmI(ctx context.Context) (domain.Workspace, error) {
	outcome, err := s.exec.Do(ctx, domain.APIRequest{Method: http.MethodGet, Path: "/oauth/userinfo"})
	if err != nil {
		return domain.Workspace{}, err
	}
	if !outcome.OK() {
		return domain.Workspace{}, &domain.APIError{Outcome: outcome}
	}

	info := gjson.ParseBytes(outcome.Body)
	return domain.Workspace{
		UserID:        firstString(info, "user.id", "id", "sub"),
		UserName:      firstString(info, "user.name", "name"),
		Email:         firstString(info, "user.email", "email"),
		WorkspaceID:   info.Get("workspace.id").String(),
		WorkspaceName: info.Get("workspace.name").String(),
		WorkspaceSlug: info.Get("workspace.slug").String(),
	}, nil
}

func (s *Service) fetchLink(ctx context.Context, req domain.APIRequest) (domain.Link, error) {
	outcome, err := s.exec.Do(ctx, req)
	if err != nil {
		return domain.Link{}, err
	}
	if !outcome.OK() {
		return domain.Link{}, &domain.APIError{Outcome: outcome}
	}
	return DecodeLink(outcome)
}

// DecodeLink reads the link returned in a successful outcome.
func DecodeLink(outcome domain.RequestOutcome) (domain.Link, error) {
	var link domain.Link
	if err := json.Unmarshal(outcome.Body, &link); err != nil {
		return domain.Link{}, fmt.Errorf("decode link: %w", err)
	}
	return link, nil
}

func createLinkRequest(req domain.CreateLinkRequest) domain.APIRequest {
	return domain.APIRequest{Method: http.MethodPost, Path: "/links", Body: req}
}

func firstString(result gjson.Result, paths ...string) string {
	for _, path := range paths {
		if value := result.Get(path).String(); value != "" {
			return value
		}
	}
	return ""
}
