package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

type PasswordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepo(db *sqlx.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.PasswordResetToken, error) {
	const query = `
        INSERT INTO password_reset_token (id, user_id, token, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, token, expires_at, used, created_at
    `
	row := r.db.QueryRowxContext(ctx, query, uuid.New(), userID, token, expiresAt)
	var reset domain.PasswordResetToken
	if err := row.StructScan(&reset); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordResetToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, used, created_at
        FROM password_reset_token
        WHERE token = $1 AND used = FALSE AND expires_at > $2
    `
	var reset domain.PasswordResetToken
	if err := r.db.GetContext(ctx, &reset, query, token, now); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE password_reset_token
        SET used = TRUE
        WHERE id = $1 AND used = FALSE
    `
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID uuid.UUID, keep ...uuid.UUID) error {
	const query = `
        DELETE FROM password_reset_token
        WHERE user_id = $1 AND NOT (id::text = ANY($2::text[]))
    `
	kept := make([]string, 0, len(keep))
	for _, id := range keep {
		kept = append(kept, id.String())
	}
	_, err := r.db.ExecContext(ctx, query, userID, pq.Array(kept))
	return err
}

var _ ports.PasswordResetRepository = (*PasswordResetRepository)(nil)
