package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/Abraxas-365/wakka/pkg/kernel"
)

// Status represents the lifecycle state of an application.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

// serverAPIKeyLength is the length of generated server API keys.
const serverAPIKeyLength = 50

var namePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// App is a tenant of the authentication service. Each app has its own user
// namespace and a server API key for privileged management calls.
type App struct {
	ID               kernel.AppID `json:"id"`
	Name             string       `json:"name"`
	Title            string       `json:"title"`
	ServerAPIKeyHash string       `json:"-"`
	// ServerAPIKey is the plaintext key. It stays readable until the owner
	// nullifies it; authentication only ever checks the hash.
	ServerAPIKey *string    `json:"server_api_key,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// ValidateName checks the app-name format: lowercase alphanumeric, no spaces.
func ValidateName(name string) error {
	if name == "" || !namePattern.MatchString(name) {
		return ErrValidation().
			WithDetail("field", "name").
			WithDetail("reason", "must be lowercase alphanumeric with no spaces")
	}
	return nil
}

// IsDeleted reports whether the app has been soft-deleted.
func (a *App) IsDeleted() bool {
	return a.Status == StatusDeleted || a.DeletedAt != nil
}

// MarkDeleted soft-deletes the app. The name is renamed so the original
// remains free for reuse by a future app.
func (a *App) MarkDeleted(now time.Time) {
	a.Name = fmt.Sprintf("%s$$deleted$$%d", a.Name, now.UnixNano())
	a.Status = StatusDeleted
	a.DeletedAt = &now
	a.UpdatedAt = now
}

const keyCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateServerAPIKey returns a new high-entropy server API key.
func GenerateServerAPIKey() (string, error) {
	key := make([]byte, serverAPIKeyLength)
	max := big.NewInt(int64(len(keyCharset)))
	for i := range key {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		key[i] = keyCharset[n.Int64()]
	}
	return string(key), nil
}
