package user

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/wakka/pkg/kernel"
)

// Status represents the lifecycle state of a user row.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

// User is an end user of a tenant application. Logical identity is
// (email, app_id) among live rows; username is globally unique.
type User struct {
	ID           kernel.UserID `json:"id"`
	Email        string        `json:"email"`
	Username     string        `json:"username"`
	Name         string        `json:"name"`
	AppID        kernel.AppID  `json:"app_id"`
	PasswordHash string        `json:"-"`
	IsActive     bool          `json:"is_active"`
	IsStaff      bool          `json:"is_staff"`
	Verified     bool          `json:"verified"`
	Status       Status        `json:"status"`
	DateJoined   time.Time     `json:"date_joined"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
	DeletedAt    *time.Time    `json:"deleted_at,omitempty"`
}

// DeriveUsername builds the globally unique username for an (app, email)
// pair. Kept stable so the same identity always maps to the same username.
func DeriveUsername(appName, email string) string {
	return fmt.Sprintf("%s$$%s", appName, email)
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.Status == StatusDeleted || u.DeletedAt != nil
}

// MarkDeleted soft-deletes the user. The username is renamed so the identity
// is freed for a future signup, and the account is deactivated.
func (u *User) MarkDeleted(now time.Time) {
	u.Username = fmt.Sprintf("%s$$deleted$$%d", u.Username, now.UnixNano())
	u.IsActive = false
	u.Status = StatusDeleted
	u.DeletedAt = &now
}

// TouchLogin stamps the last successful authentication.
func (u *User) TouchLogin(now time.Time) {
	u.LastLogin = &now
}
