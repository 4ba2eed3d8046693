package app

import (
	"context"

	"github.com/Abraxas-365/wakka/pkg/kernel"
)

// Repository persists applications. Reads exclude soft-deleted rows unless
// includeDeleted is set.
type Repository interface {
	Save(ctx context.Context, a *App) error
	FindByID(ctx context.Context, id kernel.AppID) (*App, error)
	FindByName(ctx context.Context, name string, includeDeleted bool) (*App, error)
	List(ctx context.Context) ([]*App, error)
}
