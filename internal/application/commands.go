package application

import "github.com/bnema/dubco-cli/internal/domain"

type DeleteLinksCommand struct {
	Links []domain.Link
	// Idempotent treats links that are already gone as deleted.
	Idempotent bool
}
