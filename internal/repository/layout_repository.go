package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unfust/unfust-server/internal/model"
)

// LayoutRepo mirrors the 'dashboard_layouts' table: one JSON blob
// of widget placements per user.
type LayoutRepo struct{ DB *sql.DB }

func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{DB: db} }

// GetByUser fetches the user's saved layout.
func (r *LayoutRepo) GetByUser(ctx context.Context, userID string) (*model.DashboardLayout, error) {
	var l model.DashboardLayout
	var widgets []byte
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, widgets, created_at, updated_at FROM dashboard_layouts WHERE user_id=? LIMIT 1",
		userID).Scan(&l.ID, &l.UserID, &widgets, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Widgets = widgets
	return &l, nil
}

// Save upserts the layout. user_id carries a unique constraint so
// the insert-or-update is a single statement.
func (r *LayoutRepo) Save(ctx context.Context, l *model.DashboardLayout) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO dashboard_layouts (id, user_id, widgets, created_at, updated_at) VALUES (?,?,?,?,?) ON DUPLICATE KEY UPDATE widgets=VALUES(widgets), updated_at=VALUES(updated_at)",
		l.ID, l.UserID, []byte(l.Widgets), l.CreatedAt, l.UpdatedAt)
	return err
}
