package ports

import (
	"context"

	"github.com/bnema/dubco-cli/internal/domain"
)

// CredentialStore persists the TokenSet between invocations. Load reports
// found=false when nothing is stored; it never treats absence as an error.
type CredentialStore interface {
	Load(ctx context.Context) (tokens domain.TokenSet, found bool, err error)
	Save(ctx context.Context, tokens domain.TokenSet) error
	Clear(ctx context.Context) error
}
