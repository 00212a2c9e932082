package ports

import (
	"context"

	"github.com/bnema/dubco-cli/internal/domain"
)

type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	// Update rewrites the config file. Only values stored in the file are
	// visible to fn; environment overrides are never persisted.
	Update(ctx context.Context, fn func(*domain.Settings)) error
}
