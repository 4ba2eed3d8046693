package appsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/Abraxas-365/wakka/pkg/logx"
	"github.com/Abraxas-365/wakka/pkg/ptrx"
	"github.com/google/uuid"
)

// Service maneja el ciclo de vida de las applications (tenants).
type Service struct {
	repo   app.Repository
	hasher iam.Hasher
}

func NewService(repo app.Repository, hasher iam.Hasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

// CreateApp registers a new application and provisions its server API key.
// The plaintext key is stored alongside the hash so the owner can read it
// until it is nullified.
func (s *Service) CreateApp(ctx context.Context, name, title string) (*app.App, error) {
	if err := app.ValidateName(name); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByName(ctx, name, false); err == nil && existing != nil {
		return nil, app.ErrAlreadyExists().WithDetail("name", name)
	} else if err != nil && !errx.IsCode(err, app.CodeInvalidAppName) {
		return nil, err
	}

	now := time.Now().UTC()
	a := &app.App{
		ID:        kernel.NewAppID(uuid.NewString()),
		Name:      name,
		Title:     title,
		Status:    app.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.provisionAPIKey(a); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{"app_id": a.ID.String(), "app_name": a.Name}).
		Info("application created")
	return a, nil
}

// GetApp fetches a live application by ID.
func (s *Service) GetApp(ctx context.Context, id kernel.AppID) (*app.App, error) {
	return s.repo.FindByID(ctx, id)
}

// ResolveByName fetches a live application by its unique name.
func (s *Service) ResolveByName(ctx context.Context, name string) (*app.App, error) {
	return s.repo.FindByName(ctx, name, false)
}

// GetOrCreateDefault resolves the single-app-mode application, creating it on
// first use.
func (s *Service) GetOrCreateDefault(ctx context.Context, name, title string) (*app.App, error) {
	a, err := s.repo.FindByName(ctx, name, false)
	if err == nil {
		return a, nil
	}
	if !errx.IsCode(err, app.CodeInvalidAppName) {
		return nil, err
	}

	a, err = s.CreateApp(ctx, name, title)
	if errx.IsCode(err, app.CodeAlreadyExists) {
		// A concurrent request created it between our find and create.
		return s.repo.FindByName(ctx, name, false)
	}
	return a, err
}

// RegenerateAPIKey replaces the server API key. The previous key stops
// working immediately.
func (s *Service) RegenerateAPIKey(ctx context.Context, id kernel.AppID) (*app.App, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.provisionAPIKey(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	logx.WithField("app_id", a.ID.String()).Info("server API key regenerated")
	return a, nil
}

// NullifyAPIKey clears the stored plaintext key. The hash is kept, so the key
// keeps authenticating; it just can no longer be read back.
func (s *Service) NullifyAPIKey(ctx context.Context, id kernel.AppID) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	a.ServerAPIKey = nil
	a.UpdatedAt = time.Now().UTC()
	return s.repo.Save(ctx, a)
}

// SoftDeleteApp marks the application deleted and frees its name.
func (s *Service) SoftDeleteApp(ctx context.Context, id kernel.AppID) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	a.MarkDeleted(time.Now().UTC())
	if err := s.repo.Save(ctx, a); err != nil {
		return err
	}

	logx.WithField("app_id", a.ID.String()).Info("application soft-deleted")
	return nil
}

// VerifyServerKey compares a presented key against the stored hash.
func (s *Service) VerifyServerKey(a *app.App, presented string) error {
	if a.ServerAPIKeyHash == "" || presented == "" {
		return app.ErrInvalidServerAPIKey()
	}
	if err := s.hasher.Compare(a.ServerAPIKeyHash, presented); err != nil {
		return app.ErrInvalidServerAPIKey()
	}
	return nil
}

func (s *Service) provisionAPIKey(a *app.App) error {
	key, err := app.GenerateServerAPIKey()
	if err != nil {
		return errx.Wrap(err, "failed to generate server API key", errx.TypeInternal)
	}
	hash, err := s.hasher.Hash(key)
	if err != nil {
		return errx.Wrap(err, "failed to hash server API key", errx.TypeInternal)
	}
	a.ServerAPIKey = ptrx.String(key)
	a.ServerAPIKeyHash = hash
	return nil
}
