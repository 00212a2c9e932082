package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServiceCreateLinkSuccess(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	req := domain.CreateLinkRequest{URL: "https://example.com", Key: "promo", TagNames: []string{"launch"}}
	exec.EXPECT().Do(mockAnyContext(), domain.APIRequest{Method: http.MethodPost, Path: "/links", Body: req}).
		Return(successOutcome(`{"id":"link_1","domain":"dub.sh","key":"promo","url":"https://example.com","shortLink":"https://dub.sh/promo"}`), nil)

	link, err := service.CreateLink(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "link_1", link.ID)
	assert.Equal(t, "https://dub.sh/promo", link.ShortLink)
}

func TestServiceCreateLinkRejectsInvalidURLWithoutCallingAPI(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	_, err := service.CreateLink(context.Background(), domain.CreateLinkRequest{URL: "ftp://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with http:// or https://")
}

func TestServiceCreateLinkReturnsAPIError(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(domain.RequestOutcome{
		Status:       domain.OutcomeClientError,
		HTTPStatus:   http.StatusConflict,
		ErrorMessage: "Duplicate key: promo",
		Attempts:     1,
	}, nil)

	_, err := service.CreateLink(context.Background(), domain.CreateLinkRequest{URL: "https://example.com", Key: "promo"})

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Outcome.HTTPStatus)
	assert.EqualError(t, err, "api request failed (status 409): Duplicate key: promo")
}

func TestServiceCreateLinksReportsEachItem(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		body := req.Body.(domain.CreateLinkRequest)
		if body.Key == "taken" {
			return domain.RequestOutcome{Status: domain.OutcomeClientError, HTTPStatus: http.StatusConflict, Attempts: 1}, nil
		}
		return successOutcome(`{"id":"link_ok"}`), nil
	}).Times(3)

	summary, err := service.CreateLinks(context.Background(), []domain.CreateLinkRequest{
		{URL: "https://a.example", Key: "a"},
		{URL: "https://b.example", Key: "taken", Domain: "dub.sh"},
		{URL: "https://c.example"},
	})
	require.NoError(t, err)

	require.Len(t, summary.Succeeded, 2)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "a", summary.Succeeded[0].Identifier)
	assert.Equal(t, "https://c.example", summary.Succeeded[1].Identifier)
	assert.Equal(t, "dub.sh/taken", summary.Failed[0].Identifier)
	assert.Equal(t, domain.BatchPartial, summary.Status())
}

func TestServiceResolveLinkByID(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), domain.APIRequest{Method: http.MethodGet, Path: "/links/clx123"}).
		Return(successOutcome(`{"id":"clx123","key":"abc"}`), nil)

	link, err := service.ResolveLink(context.Background(), "clx123", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", link.Key)
}

func TestServiceResolveLinkFallsBackToExternalID(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	var paths []string
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		paths = append(paths, req.Path+"?"+req.Query.Encode())
		if req.Query.Get("externalId") == "promo" {
			return successOutcome(`{"id":"link_9","externalId":"promo"}`), nil
		}
		return notFoundOutcome(), nil
	}).Times(2)

	link, err := service.ResolveLink(context.Background(), "promo", "dub.sh")
	require.NoError(t, err)
	assert.Equal(t, "link_9", link.ID)
	assert.Equal(t, []string{
		"/links/info?domain=dub.sh&key=promo",
		"/links/info?externalId=promo",
	}, paths)
}

func TestServiceResolveLinkNotFound(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(notFoundOutcome(), nil).Times(3)

	_, err := service.ResolveLink(context.Background(), "link_gone", "dub.sh")
	require.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.Contains(t, err.Error(), "link_gone")
}

func TestServiceResolveLinkStopsOnOtherFailures(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).Return(domain.RequestOutcome{}, domain.ErrNotAuthenticated).Once()

	_, err := service.ResolveLink(context.Background(), "clx1", "")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestServiceResolveLinksSplitsFoundAndMissing(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		if req.Path == "/links/link_1" {
			return successOutcome(`{"id":"link_1","clicks":7}`), nil
		}
		return notFoundOutcome(), nil
	})

	resolved, err := service.ResolveLinks(context.Background(), ResolveLinksQuery{Refs: []string{"link_1", "nope"}})
	require.NoError(t, err)
	require.Len(t, resolved.Found, 1)
	assert.Equal(t, "link_1", resolved.Found[0].ID)
	assert.Equal(t, []string{"nope"}, resolved.Missing)
	assert.Equal(t, int64(7), resolved.TotalClicks())
}

func TestServiceDeleteLinksHonorsIdempotentFlag(t *testing.T) {
	links := []domain.Link{
		{ID: "link_1", ShortLink: "https://dub.sh/a"},
		{ID: "link_2"},
	}

	tests := []struct {
		name       string
		idempotent bool
		succeeded  int
		failed     int
	}{
		{name: "missing link is reported", idempotent: false, succeeded: 1, failed: 1},
		{name: "missing link counts as deleted", idempotent: true, succeeded: 2, failed: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			exec := mocks.NewMockRequestExecutor(t)
			service := NewService(exec, nil)

			exec.EXPECT().Do(mockAnyContext(), domain.APIRequest{Method: http.MethodDelete, Path: "/links/link_1"}).
				Return(successOutcome(`{"id":"link_1"}`), nil)
			exec.EXPECT().Do(mockAnyContext(), domain.APIRequest{Method: http.MethodDelete, Path: "/links/link_2"}).
				Return(notFoundOutcome(), nil)

			summary, err := service.DeleteLinks(context.Background(), DeleteLinksCommand{Links: links, Idempotent: tt.idempotent})
			require.NoError(t, err)
			assert.Len(t, summary.Succeeded, tt.succeeded)
			assert.Len(t, summary.Failed, tt.failed)
			assert.Equal(t, "https://dub.sh/a", summary.Succeeded[0].Identifier)
		})
	}
}

func TestServiceListLinksPaginates(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	var pages []string
	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		pages = append(pages, req.Query.Get("page"))
		assert.Equal(t, "/links", req.Path)
		assert.Equal(t, "100", req.Query.Get("pageSize"))
		assert.Equal(t, "clicks", req.Query.Get("sort"))
		assert.Equal(t, "a,b", req.Query.Get("tagNames"))
		if req.Query.Get("page") == "1" {
			return successOutcome(linksJSON(0, 100)), nil
		}
		return successOutcome(linksJSON(100, 3)), nil
	}).Times(2)

	links, err := service.ListLinks(context.Background(), domain.ListLinksFilter{Sort: domain.SortClicks, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Len(t, links, 103)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, "link_102", links[102].ID)
}

func TestServiceListLinksAppliesLimit(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), mock.Anything).RunAndReturn(func(_ context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
		assert.Equal(t, "5", req.Query.Get("pageSize"))
		assert.Equal(t, "createdAt", req.Query.Get("sort"))
		assert.Equal(t, "dub.sh", req.Query.Get("domain"))
		return successOutcome(linksJSON(0, 5)), nil
	}).Once()

	links, err := service.ListLinks(context.Background(), domain.ListLinksFilter{Domain: "dub.sh", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, links, 5)
}

func TestServiceListLinksRejectsUnknownSort(t *testing.T) {
	service := NewService(mocks.NewMockRequestExecutor(t), nil)

	_, err := service.ListLinks(context.Background(), domain.ListLinksFilter{Sort: "popularity"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sort")
}

func TestServiceWhoAmI(t *testing.T) {
	exec := mocks.NewMockRequestExecutor(t)
	service := NewService(exec, nil)

	exec.EXPECT().Do(mockAnyContext(), domain.APIRequest{Method: http.MethodGet, Path: "/oauth/userinfo"}).
		Return(successOutcome(`{"id":"user_1","name":"Ada","email":"ada@example.com","workspace":{"id":"ws_1","name":"Acme","slug":"acme"}}`), nil)

	info, err := service.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Workspace{
		UserID:        "user_1",
		UserName:      "Ada",
		Email:         "ada@example.com",
		WorkspaceID:   "ws_1",
		WorkspaceName: "Acme",
		WorkspaceSlug: "acme",
	}, info)
}

func successOutcome(body string) domain.RequestOutcome {
	return domain.RequestOutcome{Status: domain.OutcomeSuccess, HTTPStatus: http.StatusOK, Body: json.RawMessage(body), Attempts: 1}
}

func notFoundOutcome() domain.RequestOutcome {
	return domain.RequestOutcome{Status: domain.OutcomeClientError, HTTPStatus: http.StatusNotFound, ErrorMessage: "Link not found.", Attempts: 1}
}

func linksJSON(offset, n int) string {
	links := make([]domain.Link, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, domain.Link{ID: fmt.Sprintf("link_%d", offset+i)})
	}
	raw, _ := json.Marshal(links)
	return string(raw)
}

func mockAnyContext() interface{} {
	return mock.Anything
}
