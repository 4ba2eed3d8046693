package token

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OneTimeClaims son los claims de los tokens de un solo uso.
type OneTimeClaims struct {
	UserID  kernel.UserID `json:"user_id"`
	AppID   kernel.AppID  `json:"app_id"`
	Purpose Purpose       `json:"purpose"`
	jwt.RegisteredClaims
}

// OneTimeEngine issues single-use JWTs backed by a persisted record. A token
// is live only while its record row exists; verifying consumes the row, so a
// second verify of the same token fails even before expiry.
type OneTimeEngine struct {
	keys     *Keys
	issuer   string
	lifetime time.Duration
	repo     RecordRepository
}

// NewOneTimeEngine crea una nueva instancia del engine de tokens de un solo uso.
func NewOneTimeEngine(keys *Keys, issuer string, lifetime time.Duration, repo RecordRepository) *OneTimeEngine {
	if lifetime == 0 {
		lifetime = 30 * time.Minute
	}

	return &OneTimeEngine{
		keys:     keys,
		issuer:   issuer,
		lifetime: lifetime,
		repo:     repo,
	}
}

// Issue mints a one-time token bound to a user and purpose, and persists its
// record. The record outlives any email-delivery failure downstream.
func (e *OneTimeEngine) Issue(ctx context.Context, userID kernel.UserID, appID kernel.AppID, purpose Purpose) (string, error) {
	now := time.Now()
	expiresAt := now.Add(e.lifetime)

	id := uuid.New()
	jti := hex.EncodeToString(id[:])

	claims := OneTimeClaims{
		UserID:  userID,
		AppID:   appID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    e.issuer,
			Subject:   userID.String(),
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.keys.private)
	if err != nil {
		return "", errx.Wrap(err, "failed to sign one-time token", errx.TypeInternal)
	}

	if err := e.repo.Save(ctx, Record{JTI: jti, ExpiresAt: expiresAt}); err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify validates a one-time token for the expected purpose and consumes it.
// Exactly one of two racing verifies of the same token succeeds.
func (e *OneTimeEngine) Verify(ctx context.Context, tokenString string, expected Purpose) (*OneTimeClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &OneTimeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return e.keys.public, nil
	}, jwt.WithIssuer(e.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired()
		}
		return nil, ErrInvalid().WithDetail("error", err.Error())
	}

	claims, ok := parsed.Claims.(*OneTimeClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid()
	}
	if claims.Purpose != expected {
		return nil, ErrInvalid().WithDetail("reason", "wrong token purpose")
	}
	if claims.ID == "" {
		return nil, ErrInvalid().WithDetail("reason", "missing jti")
	}

	consumed, err := e.repo.Consume(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, ErrInvalid().WithDetail("reason", "token already used or unknown")
	}

	return claims, nil
}

// DeleteExpired purges lingering records for tokens that were never consumed.
func (e *OneTimeEngine) DeleteExpired(ctx context.Context) (int64, error) {
	return e.repo.DeleteExpired(ctx)
}
