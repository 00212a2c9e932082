package ports

import (
	"context"

	"github.com/bnema/dubco-cli/internal/domain"
)

type TokenRefresher interface {
	Refresh(ctx context.Context, tokens domain.TokenSet) (domain.TokenSet, error)
}
