package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bnema/dubco-cli/internal/domain"
)

const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitAuth     = 3
	ExitNotFound = 4
	ExitPartial  = 5
)

// ExitError attaches a process exit code to an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func withExitCode(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

func usageError(err error) error {
	return withExitCode(ExitUsage, err)
}

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrMissingClientID), errors.Is(err, domain.ErrInvalidRequest):
		return ExitUsage
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrCredentialCorrupt),
		errors.Is(err, domain.ErrRefreshExpired),
		errors.Is(err, domain.ErrTokenExchange),
		errors.Is(err, domain.ErrStateMismatch),
		errors.Is(err, domain.ErrLoginTimeout):
		return ExitAuth
	case errors.Is(err, domain.ErrLinkNotFound):
		return ExitNotFound
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Outcome.HTTPStatus == http.StatusUnauthorized {
		return ExitAuth
	}

	return ExitFailure
}

// bulkExit turns a finished batch into the command result.
func bulkExit(summary domain.BulkSummary) error {
	switch summary.Status() {
	case domain.BatchPartial:
		return withExitCode(ExitPartial, fmt.Errorf("%d of %d items failed", len(summary.Failed), summary.Total()))
	case domain.BatchFailed:
		return withExitCode(ExitFailure, fmt.Errorf("all %d items failed", summary.Total()))
	default:
		return nil
	}
}
