package appinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAppRepository es la implementación en PostgreSQL de app.Repository.
type PostgresAppRepository struct {
	db *sqlx.DB
}

// NewPostgresAppRepository crea una nueva instancia del repositorio.
func NewPostgresAppRepository(db *sqlx.DB) app.Repository {
	return &PostgresAppRepository{
		db: db,
	}
}

type appPersistence struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Title            string         `db:"title"`
	ServerAPIKeyHash string         `db:"server_api_key_hash"`
	ServerAPIKey     sql.NullString `db:"server_api_key"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	DeletedAt        sql.NullTime   `db:"deleted_at"`
}

func toPersistence(a *app.App) appPersistence {
	p := appPersistence{
		ID:               a.ID.String(),
		Name:             a.Name,
		Title:            a.Title,
		ServerAPIKeyHash: a.ServerAPIKeyHash,
		Status:           string(a.Status),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.ServerAPIKey != nil {
		p.ServerAPIKey = sql.NullString{String: *a.ServerAPIKey, Valid: true}
	}
	if a.DeletedAt != nil {
		p.DeletedAt = sql.NullTime{Time: *a.DeletedAt, Valid: true}
	}
	return p
}

func toDomain(p appPersistence) *app.App {
	a := &app.App{
		ID:               kernel.AppID(p.ID),
		Name:             p.Name,
		Title:            p.Title,
		ServerAPIKeyHash: p.ServerAPIKeyHash,
		Status:           app.Status(p.Status),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.ServerAPIKey.Valid {
		key := p.ServerAPIKey.String
		a.ServerAPIKey = &key
	}
	if p.DeletedAt.Valid {
		deletedAt := p.DeletedAt.Time
		a.DeletedAt = &deletedAt
	}
	return a
}

// Save inserta o actualiza una application.
func (r *PostgresAppRepository) Save(ctx context.Context, a *app.App) error {
	exists, err := r.appExists(ctx, a.ID)
	if err != nil {
		return errx.Wrap(err, "failed to check app existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, a)
	}
	return r.create(ctx, a)
}

func (r *PostgresAppRepository) create(ctx context.Context, a *app.App) error {
	query := `
		INSERT INTO applications (
			id, name, title, server_api_key_hash, server_api_key,
			status, created_at, updated_at, deleted_at
		) VALUES (
			:id, :name, :title, :server_api_key_hash, :server_api_key,
			:status, :created_at, :updated_at, :deleted_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(a))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return app.ErrAlreadyExists().WithDetail("name", a.Name)
		}
		return errx.Wrap(err, "failed to create app", errx.TypeInternal).
			WithDetail("app_id", a.ID.String())
	}
	return nil
}

func (r *PostgresAppRepository) update(ctx context.Context, a *app.App) error {
	query := `
		UPDATE applications SET
			name = :name,
			title = :title,
			server_api_key_hash = :server_api_key_hash,
			server_api_key = :server_api_key,
			status = :status,
			updated_at = :updated_at,
			deleted_at = :deleted_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(a))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return app.ErrAlreadyExists().WithDetail("name", a.Name)
		}
		return errx.Wrap(err, "failed to update app", errx.TypeInternal).
			WithDetail("app_id", a.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return app.ErrNotFound()
	}

	return nil
}

// FindByID busca una application por su ID. Soft-deleted rows are included so
// callers holding an ID can still manage a deleted app.
func (r *PostgresAppRepository) FindByID(ctx context.Context, id kernel.AppID) (*app.App, error) {
	var p appPersistence
	query := `SELECT * FROM applications WHERE id = $1`
	err := r.db.GetContext(ctx, &p, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, app.ErrNotFound().WithDetail("app_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find app by ID", errx.TypeInternal)
	}
	return toDomain(p), nil
}

// FindByName busca una application por su nombre único.
func (r *PostgresAppRepository) FindByName(ctx context.Context, name string, includeDeleted bool) (*app.App, error) {
	query := `SELECT * FROM applications WHERE name = $1 AND deleted_at IS NULL`
	if includeDeleted {
		query = `SELECT * FROM applications WHERE name = $1`
	}

	var p appPersistence
	err := r.db.GetContext(ctx, &p, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, app.ErrInvalidAppName().WithDetail("app_name", name)
		}
		return nil, errx.Wrap(err, "failed to find app by name", errx.TypeInternal)
	}
	return toDomain(p), nil
}

// List devuelve todas las applications vivas.
func (r *PostgresAppRepository) List(ctx context.Context) ([]*app.App, error) {
	var rows []appPersistence
	query := `SELECT * FROM applications WHERE deleted_at IS NULL ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errx.Wrap(err, "failed to list apps", errx.TypeInternal)
	}

	apps := make([]*app.App, 0, len(rows))
	for _, p := range rows {
		apps = append(apps, toDomain(p))
	}
	return apps, nil
}

func (r *PostgresAppRepository) appExists(ctx context.Context, id kernel.AppID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id.String())
	return exists, err
}
