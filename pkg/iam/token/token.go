package token

import (
	"crypto/rsa"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/golang-jwt/jwt/v5"
)

// Type distinguishes the two session token kinds carried in the "type" claim.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Purpose scopes a one-time token to a single flow. A token issued for one
// purpose never verifies for another.
type Purpose string

const (
	PurposeEmailVerification Purpose = "EMAIL_VERIFICATION"
	PurposePasswordReset     Purpose = "PASSWORD_RESET"
)

// Keys holds the RS256 signing key pair. The private key signs, the public
// key verifies.
type Keys struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// ParseKeys parses a PEM-encoded RSA key pair.
func ParseKeys(privatePEM, publicPEM []byte) (*Keys, error) {
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, errx.Wrap(err, "failed to parse RSA private key", errx.TypeInternal)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, errx.Wrap(err, "failed to parse RSA public key", errx.TypeInternal)
	}
	return &Keys{private: private, public: public}, nil
}
