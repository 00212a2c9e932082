package ports

import (
	"context"

	"github.com/bnema/dubco-cli/internal/domain"
)

// RequestExecutor performs one authenticated API call. Per-call failures are
// reported in the outcome; the error is reserved for conditions that make
// every further call pointless.
type RequestExecutor interface {
	Do(ctx context.Context, req domain.APIRequest) (domain.RequestOutcome, error)
}
