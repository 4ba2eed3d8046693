package userinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository es la implementación en PostgreSQL de user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository crea una nueva instancia del repositorio.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{
		db: db,
	}
}

type userPersistence struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	Username     string       `db:"username"`
	Name         string       `db:"name"`
	AppID        string       `db:"app_id"`
	PasswordHash string       `db:"password_hash"`
	IsActive     bool         `db:"is_active"`
	IsStaff      bool         `db:"is_staff"`
	Verified     bool         `db:"verified"`
	Status       string       `db:"status"`
	DateJoined   time.Time    `db:"date_joined"`
	LastLogin    sql.NullTime `db:"last_login"`
	DeletedAt    sql.NullTime `db:"deleted_at"`
}

func toPersistence(u *user.User) userPersistence {
	p := userPersistence{
		ID:           u.ID.String(),
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		AppID:        u.AppID.String(),
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsStaff:      u.IsStaff,
		Verified:     u.Verified,
		Status:       string(u.Status),
		DateJoined:   u.DateJoined,
	}
	if u.LastLogin != nil {
		p.LastLogin = sql.NullTime{Time: *u.LastLogin, Valid: true}
	}
	if u.DeletedAt != nil {
		p.DeletedAt = sql.NullTime{Time: *u.DeletedAt, Valid: true}
	}
	return p
}

func toDomain(p userPersistence) *user.User {
	u := &user.User{
		ID:           kernel.UserID(p.ID),
		Email:        p.Email,
		Username:     p.Username,
		Name:         p.Name,
		AppID:        kernel.AppID(p.AppID),
		PasswordHash: p.PasswordHash,
		IsActive:     p.IsActive,
		IsStaff:      p.IsStaff,
		Verified:     p.Verified,
		Status:       user.Status(p.Status),
		DateJoined:   p.DateJoined,
	}
	if p.LastLogin.Valid {
		lastLogin := p.LastLogin.Time
		u.LastLogin = &lastLogin
	}
	if p.DeletedAt.Valid {
		deletedAt := p.DeletedAt.Time
		u.DeletedAt = &deletedAt
	}
	return u
}

// Save inserta o actualiza un user.
func (r *PostgresUserRepository) Save(ctx context.Context, u *user.User) error {
	exists, err := r.userExists(ctx, u.ID)
	if err != nil {
		return errx.Wrap(err, "failed to check user existence", errx.TypeInternal)
	}

	if exists {
		return r.update(ctx, u)
	}
	return r.create(ctx, u)
}

func (r *PostgresUserRepository) create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, username, name, app_id, password_hash,
			is_active, is_staff, verified, status, date_joined, last_login, deleted_at
		) VALUES (
			:id, :email, :username, :name, :app_id, :password_hash,
			:is_active, :is_staff, :verified, :status, :date_joined, :last_login, :deleted_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, toPersistence(u))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return user.ErrAlreadyExists().WithDetail("email", u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return nil
}

func (r *PostgresUserRepository) update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			username = :username,
			name = :name,
			password_hash = :password_hash,
			is_active = :is_active,
			is_staff = :is_staff,
			verified = :verified,
			status = :status,
			last_login = :last_login,
			deleted_at = :deleted_at
		WHERE id = :id AND app_id = :app_id`

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(u))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return user.ErrAlreadyExists().WithDetail("username", u.Username)
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrDoesNotExist()
	}

	return nil
}

// FindByID busca un user vivo por su ID dentro de una application.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID, appID kernel.AppID) (*user.User, error) {
	var p userPersistence
	query := `SELECT * FROM users WHERE id = $1 AND app_id = $2 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &p, query, id.String(), appID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrDoesNotExist().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by ID", errx.TypeInternal)
	}
	return toDomain(p), nil
}

// FindByEmail busca un user por su identidad lógica (email, app).
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string, appID kernel.AppID, includeDeleted bool) (*user.User, error) {
	query := `SELECT * FROM users WHERE email = $1 AND app_id = $2 AND deleted_at IS NULL`
	if includeDeleted {
		// Prefer the live row when both a live and soft-deleted one exist.
		query = `SELECT * FROM users WHERE email = $1 AND app_id = $2 ORDER BY deleted_at IS NOT NULL, date_joined DESC LIMIT 1`
	}

	var p userPersistence
	err := r.db.GetContext(ctx, &p, query, email, appID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrDoesNotExist().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	return toDomain(p), nil
}

// HardDelete elimina la fila de forma permanente.
func (r *PostgresUserRepository) HardDelete(ctx context.Context, id kernel.UserID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to hard-delete user", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return user.ErrDoesNotExist()
	}
	return nil
}

// UpdateLastLogin stamps last_login for a successful authentication.
func (r *PostgresUserRepository) UpdateLastLogin(ctx context.Context, id kernel.UserID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to update last_login", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}
	return nil
}

func (r *PostgresUserRepository) userExists(ctx context.Context, id kernel.UserID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	err := r.db.GetContext(ctx, &exists, query, id.String())
	return exists, err
}
