package authinfra

import (
	"github.com/Abraxas-365/wakka/pkg/iam"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implementa iam.Hasher usando bcrypt. bcrypt comparisons are
// constant-time, which also covers server API key checks.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher crea un hasher con el costo dado (0 usa el default).
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

var _ iam.Hasher = (*BcryptHasher)(nil)
