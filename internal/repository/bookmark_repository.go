package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unfust/unfust-server/internal/model"
)

// BookmarkRepo mirrors the 'bookmarks' table.
type BookmarkRepo struct{ DB *sql.DB }

func NewBookmarkRepo(db *sql.DB) *BookmarkRepo { return &BookmarkRepo{DB: db} }

// ListByUser returns a user's bookmarks grouped for display:
// ordered by category, then position.
func (r *BookmarkRepo) ListByUser(ctx context.Context, userID string) ([]*model.Bookmark, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, title, url, COALESCE(category,''), position, created_at FROM bookmarks WHERE user_id=? ORDER BY category, position",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []*model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &b.Category, &b.Position, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, &b)
	}
	return bookmarks, rows.Err()
}

func (r *BookmarkRepo) Get(ctx context.Context, id, userID string) (*model.Bookmark, error) {
	var b model.Bookmark
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, title, url, COALESCE(category,''), position, created_at FROM bookmarks WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&b.ID, &b.UserID, &b.Title, &b.URL, &b.Category, &b.Position, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookmarkRepo) Create(ctx context.Context, b *model.Bookmark) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookmarks (id, user_id, title, url, category, position, created_at) VALUES (?,?,?,?,NULLIF(?,''),?,?)",
		b.ID, b.UserID, b.Title, b.URL, b.Category, b.Position, b.CreatedAt)
	return err
}

func (r *BookmarkRepo) Update(ctx context.Context, b *model.Bookmark) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE bookmarks SET title=?, url=?, category=NULLIF(?,''), position=? WHERE id=? AND user_id=?",
		b.Title, b.URL, b.Category, b.Position, b.ID, b.UserID)
	return err
}

func (r *BookmarkRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM bookmarks WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
