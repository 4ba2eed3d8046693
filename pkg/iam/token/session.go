package token

import (
	"errors"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims son los claims de los tokens de sesión (access y refresh).
type SessionClaims struct {
	UserID kernel.UserID `json:"user_id"`
	AppID  kernel.AppID  `json:"app_id"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	App    string        `json:"app"`
	Type   Type          `json:"type"`
	jwt.RegisteredClaims
}

// SessionEngine issues and verifies the access/refresh token pair. Tokens are
// stateless; there is no revocation list.
type SessionEngine struct {
	keys       *Keys
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSessionEngine crea una nueva instancia del engine de sesión.
func NewSessionEngine(keys *Keys, issuer string, accessTTL, refreshTTL time.Duration) *SessionEngine {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &SessionEngine{
		keys:       keys,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccess genera un access token para el user.
func (e *SessionEngine) IssueAccess(u *user.User, appName string) (string, error) {
	return e.issue(u, appName, TypeAccess, e.accessTTL)
}

// IssueRefresh genera un refresh token para el user.
func (e *SessionEngine) IssueRefresh(u *user.User, appName string) (string, error) {
	return e.issue(u, appName, TypeRefresh, e.refreshTTL)
}

func (e *SessionEngine) issue(u *user.User, appName string, typ Type, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := SessionClaims{
		UserID: u.ID,
		AppID:  u.AppID,
		Email:  u.Email,
		Name:   u.Name,
		App:    appName,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    e.issuer,
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.keys.private)
	if err != nil {
		return "", errx.Wrap(err, "failed to sign session token", errx.TypeInternal)
	}
	return tokenString, nil
}

// Verify valida un token de sesión y comprueba que sea del tipo esperado.
func (e *SessionEngine) Verify(tokenString string, expected Type) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
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

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid()
	}
	if claims.Type != expected {
		return nil, ErrInvalid().WithDetail("reason", "wrong token type")
	}
	return claims, nil
}

// AccessTTL exposes the configured access token lifetime.
func (e *SessionEngine) AccessTTL() time.Duration {
	return e.accessTTL
}
