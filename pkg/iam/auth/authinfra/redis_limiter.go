package authinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

// RedisResendLimiter implementa auth.ResendLimiter con claves SET NX en Redis.
type RedisResendLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisResendLimiter crea un limiter sobre un cliente Redis.
func NewRedisResendLimiter(client *redis.Client) *RedisResendLimiter {
	return &RedisResendLimiter{
		client: client,
		prefix: "wakka:resend",
	}
}

// Allow reserves the slot for key atomically. The reservation expires with
// the window, so a failed send still blocks immediate retries.
func (l *RedisResendLimiter) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, fmt.Sprintf("%s:%s", l.prefix, key), 1, window).Result()
	if err != nil {
		return false, errx.Wrap(err, "failed to check resend limit", errx.TypeExternal).
			WithDetail("key", key)
	}
	return ok, nil
}

var _ auth.ResendLimiter = (*RedisResendLimiter)(nil)
