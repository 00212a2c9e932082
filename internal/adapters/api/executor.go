package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/bnema/dubco-cli/internal/ports"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL       = "https://api.dub.co"
	defaultTimeout       = 30 * time.Second
	defaultUserAgent     = "dubco-cli"
	maxResponseBytes     = 4 << 20
	maxErrorSnippetBytes = 200
)

// Executor sends authenticated requests to the Dub.co API and classifies
// every response into a domain.RequestOutcome.
type Executor struct {
	baseURL   *url.URL
	http      *http.Client
	session   *Session
	policy    RetryPolicy
	userAgent string
}

var _ ports.RequestExecutor = (*Executor)(nil)

type Option func(*Executor) error

func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) error {
		if client == nil {
			return errors.New("http client is nil")
		}
		e.http = client
		return nil
	}
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Executor) error {
		e.policy = policy.withDefaults()
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(e *Executor) error {
		if userAgent != "" {
			e.userAgent = userAgent
		}
		return nil
	}
}

func NewExecutor(baseURL string, session *Session, opts ...Option) (*Executor, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}

	e := &Executor{
		baseURL:   parsed,
		http:      &http.Client{Timeout: defaultTimeout},
		session:   session,
		policy:    DefaultRetryPolicy(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Do executes req. Only structural failures are returned as errors:
// domain.ErrNotAuthenticated, domain.ErrCredentialCorrupt, a malformed
// request (domain.ErrInvalidRequest), failure to persist refreshed
// credentials and context cancellation.
func (e *Executor) Do(ctx context.Context, req domain.APIRequest) (domain.RequestOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.RequestOutcome{}, err
	}

	target, body, err := e.prepare(req)
	if err != nil {
		return domain.RequestOutcome{}, err
	}

	if logging.GetRequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, logging.GenerateRequestID())
	}
	logger := logging.Entry(ctx).WithFields(log.Fields{
		"method": req.Method,
		"path":   req.Path,
	})

	tokens, err := e.session.Token(ctx)
	if err != nil {
		return tokenFailure(ctx, logger, err, 0)
	}

	var (
		outcome   domain.RequestOutcome
		attempts  int
		transient int
		refreshed bool
	)
	for {
		attempts++
		var retryAfter time.Duration
		outcome, retryAfter = e.send(ctx, req.Method, target, body, tokens.AccessToken)
		if err := ctx.Err(); err != nil {
			return domain.RequestOutcome{}, err
		}

		if outcome.HTTPStatus == http.StatusUnauthorized {
			if refreshed {
				logger.Debug("api: still unauthorized after token refresh")
				return domain.RequestOutcome{}, fmt.Errorf("%w: server rejected refreshed token: %s", domain.ErrNotAuthenticated, outcome.Message())
			}
			refreshed = true
			logger.Debug("api: unauthorized, refreshing token once")
			tokens, err = e.session.ForceRefresh(ctx, tokens)
			if err != nil {
				return tokenFailure(ctx, logger, err, attempts)
			}
			continue
		}

		if !outcome.Status.Retriable() {
			break
		}

		transient++
		if transient >= e.policy.MaxAttempts {
			logger.Debugf("api: giving up after %d transient failures (%s)", transient, outcome.Status)
			break
		}

		delay := e.policy.Delay(transient-1, retryAfter)
		logger.Debugf("api: %s (status %d), retrying in %s", outcome.Status, outcome.HTTPStatus, delay)
		if err := sleepContext(ctx, delay); err != nil {
			return domain.RequestOutcome{}, err
		}
	}

	outcome.Attempts = attempts
	logger.WithField("status", outcome.HTTPStatus).Debugf("api: %s after %d attempt(s)", outcome.Status, attempts)
	return outcome, nil
}

// tokenFailure separates structural token errors from a transient failure
// to reach the token endpoint, which becomes a NetworkError outcome.
func tokenFailure(ctx context.Context, logger *log.Entry, err error, attempts int) (domain.RequestOutcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.RequestOutcome{}, ctxErr
	}
	if errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrCredentialCorrupt) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.RequestOutcome{}, err
	}
	if errors.Is(err, ErrPersistCredentials) {
		return domain.RequestOutcome{}, err
	}

	logger.Debugf("api: token refresh failed: %v", err)
	return domain.RequestOutcome{
		Status:       domain.OutcomeNetworkError,
		ErrorMessage: "token refresh failed: " + err.Error(),
		Attempts:     attempts,
	}, nil
}

func (e *Executor) prepare(req domain.APIRequest) (string, []byte, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return "", nil, fmt.Errorf("%w: unsupported method %q", domain.ErrInvalidRequest, req.Method)
	}
	if !strings.HasPrefix(req.Path, "/") {
		return "", nil, fmt.Errorf("%w: path %q must start with /", domain.ErrInvalidRequest, req.Path)
	}

	target := e.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	if req.Body == nil {
		return target.String(), nil, nil
	}

	body, err := json.Marshal(req.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: encode body: %v", domain.ErrInvalidRequest, err)
	}

	return target.String(), body, nil
}

func (e *Executor) send(ctx context.Context, method, target string, body []byte, accessToken string) (domain.RequestOutcome, time.Duration) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, reader)
	if err != nil {
		return domain.RequestOutcome{Status: domain.OutcomeNetworkError, ErrorMessage: err.Error()}, 0
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(httpReq)
	if err != nil {
		return domain.RequestOutcome{Status: domain.OutcomeNetworkError, ErrorMessage: err.Error()}, 0
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.RequestOutcome{
			Status:       domain.OutcomeNetworkError,
			HTTPStatus:   resp.StatusCode,
			ErrorMessage: fmt.Sprintf("read response body: %v", err),
		}, 0
	}

	return classify(resp.StatusCode, data), parseRetryAfter(resp.Header)
}

func classify(status int, data []byte) domain.RequestOutcome {
	outcome := domain.RequestOutcome{HTTPStatus: status}
	if len(bytes.TrimSpace(data)) > 0 && json.Valid(data) {
		outcome.Body = json.RawMessage(data)
	}

	switch {
	case status >= 200 && status < 300:
		outcome.Status = domain.OutcomeSuccess
		return outcome
	case status == http.StatusTooManyRequests:
		outcome.Status = domain.OutcomeRateLimited
	case status >= 500:
		outcome.Status = domain.OutcomeServerError
	default:
		outcome.Status = domain.OutcomeClientError
	}

	outcome.ErrorMessage, outcome.ErrorCode = extractError(status, data)
	return outcome
}

// extractError reads the {"error":{"message","code"}} envelope and falls
// back to a trimmed body or the status text.
func extractError(status int, data []byte) (string, string) {
	if gjson.ValidBytes(data) {
		parsed := gjson.ParseBytes(data)
		message := parsed.Get("error.message").String()
		code := parsed.Get("error.code").String()
		if message == "" {
			if errField := parsed.Get("error"); errField.Type == gjson.String {
				message = errField.String()
			}
		}
		if message == "" {
			message = parsed.Get("message").String()
		}
		if message != "" {
			return message, code
		}
		if code != "" {
			return http.StatusText(status), code
		}
	}

	snippet := strings.TrimSpace(string(data))
	if snippet == "" || gjson.ValidBytes(data) {
		return http.StatusText(status), ""
	}
	if len(snippet) > maxErrorSnippetBytes {
		snippet = snippet[:maxErrorSnippetBytes] + "..."
	}
	return snippet, ""
}
