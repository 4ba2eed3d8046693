package auth

import (
	"context"
	"time"
)

// ResendLimiter throttles repeat sends of one-time token emails to the same
// recipient.
type ResendLimiter interface {
	// Allow reports whether a send for key may proceed, reserving the slot
	// for the window when it does.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}
