package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unfust/unfust-server/internal/model"
)

// ResetRepo persists password reset tokens (single 'token_hash'
// column, single-use via the used flag).
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Insert stores a new reset token row.
func (r *ResetRepo) Insert(ctx context.Context, t *model.PasswordResetToken) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, used, created_at) VALUES (?,?,?,?,?,?)",
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.Used, t.CreatedAt)
	return err
}

// GetByHash returns the reset token row for a secret's hash.
func (r *ResetRepo) GetByHash(ctx context.Context, hash string) (*model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, used, created_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		hash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed consumes a token if it has not been consumed yet, and
// reports whether this call did the consuming.
func (r *ResetRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used=1 WHERE id=? AND used=0", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
