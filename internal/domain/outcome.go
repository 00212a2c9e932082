package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type OutcomeStatus string

const (
	OutcomeSuccess      OutcomeStatus = "success"
	OutcomeClientError  OutcomeStatus = "client_error"
	OutcomeServerError  OutcomeStatus = "server_error"
	OutcomeRateLimited  OutcomeStatus = "rate_limited"
	OutcomeNetworkError OutcomeStatus = "network_error"
)

// Retriable reports whether another attempt could change the result.
func (s OutcomeStatus) Retriable() bool {
	switch s {
	case OutcomeServerError, OutcomeRateLimited, OutcomeNetworkError:
		return true
	default:
		return false
	}
}

type APIRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// RequestOutcome is the classified result of one logical API call,
// after retries.
type RequestOutcome struct {
	Status       OutcomeStatus
	HTTPStatus   int
	Body         json.RawMessage
	ErrorMessage string
	ErrorCode    string
	Attempts     int
}

func (o RequestOutcome) OK() bool {
	return o.Status == OutcomeSuccess
}

func (o RequestOutcome) NotFound() bool {
	return o.Status == OutcomeClientError && o.HTTPStatus == http.StatusNotFound
}

// Message is a one-line description suitable for per-item reports.
func (o RequestOutcome) Message() string {
	if o.ErrorMessage != "" {
		return o.ErrorMessage
	}
	switch o.Status {
	case OutcomeSuccess:
		return "ok"
	case OutcomeNetworkError:
		return "network error"
	case OutcomeRateLimited:
		return "rate limited"
	}
	if o.HTTPStatus != 0 {
		return http.StatusText(o.HTTPStatus)
	}
	return string(o.Status)
}

// APIError turns a failed outcome of a single, non-bulk call into an error.
type APIError struct {
	Outcome RequestOutcome
}

func (e *APIError) Error() string {
	if e.Outcome.HTTPStatus == 0 {
		return fmt.Sprintf("api request failed: %s", e.Outcome.Message())
	}
	return fmt.Sprintf("api request failed (status %d): %s", e.Outcome.HTTPStatus, e.Outcome.Message())
}

func (e *APIError) Unwrap() error {
	if e.Outcome.NotFound() {
		return ErrLinkNotFound
	}
	return nil
}
