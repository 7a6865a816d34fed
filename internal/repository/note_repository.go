package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unfust/unfust-server/internal/model"
)

const noteColumns = "id,user_id,title,content,color,x,y,w,h,z_index,created_at,updated_at"

// NoteRepo mirrors the 'notes' table.
type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

// ListByUser returns notes front-to-back (highest z first).
func (r *NoteRepo) ListByUser(ctx context.Context, userID string) ([]*model.Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE user_id=? ORDER BY z_index DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color,
			&n.X, &n.Y, &n.W, &n.H, &n.ZIndex, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Get(ctx context.Context, id, userID string) (*model.Note, error) {
	var n model.Note
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Color,
		&n.X, &n.Y, &n.W, &n.H, &n.ZIndex, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (id,user_id,title,content,color,x,y,w,h,z_index,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		n.ID, n.UserID, n.Title, n.Content, n.Color, n.X, n.Y, n.W, n.H,
		n.ZIndex, n.CreatedAt, n.UpdatedAt)
	return err
}

func (r *NoteRepo) Update(ctx context.Context, n *model.Note) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notes SET title=?, content=?, color=?, x=?, y=?, w=?, h=?, z_index=?, updated_at=UTC_TIMESTAMP() WHERE id=? AND user_id=?",
		n.Title, n.Content, n.Color, n.X, n.Y, n.W, n.H, n.ZIndex, n.ID, n.UserID)
	return err
}

// MaxZIndex returns the highest stacking index among a user's notes
// so new and fronted notes land on top.
func (r *NoteRepo) MaxZIndex(ctx context.Context, userID string) (int, error) {
	var z int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(z_index),0) FROM notes WHERE user_id=?", userID).Scan(&z)
	return z, err
}

func (r *NoteRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM notes WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
