package usersrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/google/uuid"
)

// Service maneja el ciclo de vida de los users dentro de una application.
type Service struct {
	repo   user.Repository
	hasher iam.Hasher
}

func NewService(repo user.Repository, hasher iam.Hasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

// CreateUser registers a user under an application. A live user with the same
// (email, app) identity is a conflict; a soft-deleted one is hard-deleted
// first so the identity can be reused with a fresh row.
func (s *Service) CreateUser(ctx context.Context, a *app.App, email, password, name string) (*user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, user.ErrValidation().WithDetail("reason", "email and password are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email, a.ID, true)
	if err != nil && !errx.IsCode(err, user.CodeDoesNotExist) {
		return nil, err
	}
	if existing != nil {
		if !existing.IsDeleted() {
			return nil, user.ErrAlreadyExists().
				WithDetail("email", email).
				WithDetail("app_name", a.Name)
		}
		if err := s.repo.HardDelete(ctx, existing.ID); err != nil {
			return nil, err
		}
		logx.WithFields(logx.Fields{"user_id": existing.ID.String(), "app_id": a.ID.String()}).
			Info("soft-deleted user purged for re-signup")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Email:        email,
		Username:     user.DeriveUsername(a.Name, email),
		Name:         name,
		AppID:        a.ID,
		PasswordHash: hash,
		IsActive:     true,
		Verified:     false,
		Status:       user.StatusActive,
		DateJoined:   now,
	}

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"user_id": u.ID.String(), "app_id": a.ID.String()}).
		Info("user created")
	return u, nil
}

// GetUser fetches a live user scoped to an application.
func (s *Service) GetUser(ctx context.Context, id kernel.UserID, appID kernel.AppID) (*user.User, error) {
	return s.repo.FindByID(ctx, id, appID)
}

// FindByEmail fetches a live user by its logical identity.
func (s *Service) FindByEmail(ctx context.Context, email string, appID kernel.AppID) (*user.User, error) {
	return s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)), appID, false)
}

// UpdateUser mutates the editable fields. Email and username are immutable;
// unverified users cannot be updated.
func (s *Service) UpdateUser(ctx context.Context, id kernel.UserID, appID kernel.AppID, name *string, isActive *bool) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id, appID)
	if err != nil {
		return nil, err
	}
	if !u.Verified {
		return nil, user.ErrNotVerified().WithDetail("user_id", u.ID.String())
	}

	if name != nil {
		u.Name = *name
	}
	if isActive != nil {
		u.IsActive = *isActive
	}

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SoftDeleteUser marks the user deleted and frees its identity.
func (s *Service) SoftDeleteUser(ctx context.Context, id kernel.UserID, appID kernel.AppID) error {
	u, err := s.repo.FindByID(ctx, id, appID)
	if err != nil {
		return err
	}

	u.MarkDeleted(time.Now().UTC())
	if err := s.repo.Save(ctx, u); err != nil {
		return err
	}

	logx.WithFields(logx.Fields{"user_id": u.ID.String(), "app_id": appID.String()}).
		Info("user soft-deleted")
	return nil
}

// MarkVerified flips the user to verified and active after a successful
// email verification.
func (s *Service) MarkVerified(ctx context.Context, u *user.User) error {
	u.Verified = true
	u.IsActive = true
	return s.repo.Save(ctx, u)
}

// ChangePassword re-hashes and stores a new password.
func (s *Service) ChangePassword(ctx context.Context, u *user.User, newPassword string) error {
	if newPassword == "" {
		return user.ErrValidation().WithDetail("reason", "password must not be empty")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errx.Wrap(err, "failed to hash password", errx.TypeInternal)
	}
	u.PasswordHash = hash
	return s.repo.Save(ctx, u)
}

// CheckPassword compares a plaintext password against the stored hash.
func (s *Service) CheckPassword(u *user.User, password string) bool {
	return s.hasher.Compare(u.PasswordHash, password) == nil
}

// TouchLastLogin stamps last_login without rewriting the whole row.
func (s *Service) TouchLastLogin(ctx context.Context, id kernel.UserID) error {
	return s.repo.UpdateLastLogin(ctx, id)
}
