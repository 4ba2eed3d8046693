package token

import (
	"context"
	"time"
)

// Record is the persisted side of a one-time token. Row existence is what
// makes the token valid; consuming deletes the row.
type Record struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RecordRepository persists one-time token records.
type RecordRepository interface {
	Save(ctx context.Context, rec Record) error
	// Consume deletes the record for jti and reports whether a row was
	// actually removed. Under concurrent calls for the same jti, exactly
	// one caller observes true.
	Consume(ctx context.Context, jti string) (bool, error)
	// DeleteExpired removes records whose expiry has passed and returns
	// how many were purged.
	DeleteExpired(ctx context.Context) (int64, error)
}
