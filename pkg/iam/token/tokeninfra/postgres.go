package tokeninfra

import (
	"context"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRecordRepository es la implementación en PostgreSQL de
// token.RecordRepository.
type PostgresRecordRepository struct {
	db *sqlx.DB
}

// NewPostgresRecordRepository crea una nueva instancia del repositorio.
func NewPostgresRecordRepository(db *sqlx.DB) token.RecordRepository {
	return &PostgresRecordRepository{
		db: db,
	}
}

// Save inserta el record de un token emitido.
func (r *PostgresRecordRepository) Save(ctx context.Context, rec token.Record) error {
	query := `INSERT INTO one_time_tokens (jti, expires_at) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, rec.JTI, rec.ExpiresAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return token.ErrInvalid().WithDetail("reason", "duplicate jti")
		}
		return errx.Wrap(err, "failed to save one-time token record", errx.TypeInternal).
			WithDetail("jti", rec.JTI)
	}
	return nil
}

// Consume borra el record. The single DELETE is what guarantees exactly-once
// consumption under concurrency.
func (r *PostgresRecordRepository) Consume(ctx context.Context, jti string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM one_time_tokens WHERE jti = $1`, jti)
	if err != nil {
		return false, errx.Wrap(err, "failed to consume one-time token record", errx.TypeInternal).
			WithDetail("jti", jti)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err, "failed to get rows affected on consume", errx.TypeInternal)
	}
	return rowsAffected == 1, nil
}

// DeleteExpired purga records vencidos.
func (r *PostgresRecordRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM one_time_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired one-time token records", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to get rows affected on purge", errx.TypeInternal)
	}
	return rowsAffected, nil
}
