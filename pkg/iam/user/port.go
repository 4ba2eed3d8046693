package user

import (
	"context"

	"github.com/Abraxas-365/wakka/pkg/kernel"
)

// Repository persists users. Reads exclude soft-deleted rows unless
// includeDeleted is set.
type Repository interface {
	Save(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id kernel.UserID, appID kernel.AppID) (*User, error)
	FindByEmail(ctx context.Context, email string, appID kernel.AppID, includeDeleted bool) (*User, error)
	// HardDelete removes the row permanently. Only used to clear a
	// soft-deleted identity before re-signup.
	HardDelete(ctx context.Context, id kernel.UserID) error
	UpdateLastLogin(ctx context.Context, id kernel.UserID) error
}
