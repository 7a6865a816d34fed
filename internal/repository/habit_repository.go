package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/unfust/unfust-server/internal/model"
)

const habitColumns = "id,user_id,name,emoji,color,COALESCE(category,''),COALESCE(description,''),habit_type,frequency_type,target_count,COALESCE(period_days,0),is_active,sort_order,created_at"

// HabitRepo mirrors the 'habits' and 'habit_logs' tables. Habit XP
// lives on the users table and is updated through here as well so
// the habit service has a single persistence dependency.
type HabitRepo struct{ DB *sql.DB }

func NewHabitRepo(db *sql.DB) *HabitRepo { return &HabitRepo{DB: db} }

// ListByUser returns the user's active habits in display order.
func (r *HabitRepo) ListByUser(ctx context.Context, userID string) ([]*model.Habit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE user_id=? AND is_active=1 ORDER BY sort_order, created_at",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []*model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// Get returns one active habit owned by the user.
func (r *HabitRepo) Get(ctx context.Context, id, userID string) (*model.Habit, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+habitColumns+" FROM habits WHERE id=? AND user_id=? AND is_active=1 LIMIT 1",
		id, userID)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HabitRepo) Create(ctx context.Context, h *model.Habit) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO habits (id,user_id,name,emoji,color,category,description,habit_type,frequency_type,target_count,period_days,is_active,sort_order,created_at) VALUES (?,?,?,?,?,NULLIF(?,''),NULLIF(?,''),?,?,?,NULLIF(?,0),?,?,?)",
		h.ID, h.UserID, h.Name, h.Emoji, h.Color, h.Category, h.Description,
		h.HabitType, h.FrequencyType, h.TargetCount, h.PeriodDays, h.IsActive,
		h.SortOrder, h.CreatedAt)
	return err
}

func (r *HabitRepo) Update(ctx context.Context, h *model.Habit) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE habits SET name=?, emoji=?, color=?, category=NULLIF(?,''), description=NULLIF(?,''), habit_type=?, frequency_type=?, target_count=?, period_days=NULLIF(?,0), sort_order=? WHERE id=? AND user_id=?",
		h.Name, h.Emoji, h.Color, h.Category, h.Description, h.HabitType,
		h.FrequencyType, h.TargetCount, h.PeriodDays, h.SortOrder, h.ID, h.UserID)
	return err
}

// SoftDelete clears is_active and keeps logs intact.
func (r *HabitRepo) SoftDelete(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE habits SET is_active=0 WHERE id=? AND user_id=? AND is_active=1",
		id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MaxSortOrder returns the highest sort_order among a user's habits
// so new habits append at the end.
func (r *HabitRepo) MaxSortOrder(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sort_order),0) FROM habits WHERE user_id=?", userID).Scan(&n)
	return n, err
}

func (r *HabitRepo) InsertLog(ctx context.Context, l *model.HabitLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO habit_logs (id,habit_id,user_id,logged_date,notes,created_at) VALUES (?,?,?,?,NULLIF(?,''),?)",
		l.ID, l.HabitID, l.UserID, l.LoggedDate, l.Notes, l.CreatedAt)
	return err
}

func (r *HabitRepo) DeleteLog(ctx context.Context, logID, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM habit_logs WHERE id=? AND user_id=?", logID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LogsByDate aggregates completions per calendar day for one habit.
// DATE_FORMAT keeps the key a plain string regardless of the
// driver's parseTime setting.
func (r *HabitRepo) LogsByDate(ctx context.Context, habitID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DATE_FORMAT(logged_date,'%Y-%m-%d'), COUNT(*) FROM habit_logs WHERE habit_id=? GROUP BY logged_date",
		habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}

// LogsInRange lists a habit's log entries between two ISO dates,
// newest first.
func (r *HabitRepo) LogsInRange(ctx context.Context, habitID, userID, start, end string) ([]*model.HabitLog, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, habit_id, user_id, DATE_FORMAT(logged_date,'%Y-%m-%d'), COALESCE(notes,''), created_at FROM habit_logs WHERE habit_id=? AND user_id=? AND logged_date>=? AND logged_date<=? ORDER BY logged_date DESC",
		habitID, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*model.HabitLog
	for rows.Next() {
		var l model.HabitLog
		if err := rows.Scan(&l.ID, &l.HabitID, &l.UserID, &l.LoggedDate, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// AddXP increments the owner's habit XP counter.
func (r *HabitRepo) AddXP(ctx context.Context, userID string, amount int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET habit_xp = habit_xp + ? WHERE id=?", amount, userID)
	return err
}

func (r *HabitRepo) GetXP(ctx context.Context, userID string) (int, error) {
	var xp int
	err := r.DB.QueryRowContext(ctx,
		"SELECT habit_xp FROM users WHERE id=?", userID).Scan(&xp)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return xp, err
}

// scanner lets scanHabit work with both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanHabit(s scanner) (*model.Habit, error) {
	var h model.Habit
	err := s.Scan(&h.ID, &h.UserID, &h.Name, &h.Emoji, &h.Color, &h.Category,
		&h.Description, &h.HabitType, &h.FrequencyType, &h.TargetCount,
		&h.PeriodDays, &h.IsActive, &h.SortOrder, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
