// Package service contains the authentication core and the habit
// tracker logic. The services hold no SQL; persistence goes through
// the store interfaces below, implemented by internal/repository
// for MySQL and by in-memory fakes in tests.
package service

import (
    "context"
    "errors"
    "time"

    "github.com/unfust/unfust-server/internal/model"
)

// ErrInvalidCredentials is the single undifferentiated failure for
// login: unknown email, wrong password and inactive account all
// surface identically so responses cannot be used for account
// enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is the single undifferentiated failure for every
// refresh/reset token path: not found, revoked, replayed, expired
// and inactive-owner all collapse into it. Callers must respond the
// same way regardless of cause.
var ErrInvalidToken = errors.New("invalid token")

// UserStore is the credential store boundary.
type UserStore interface {
    // GetByEmail looks up a user by normalized email.
    GetByEmail(ctx context.Context, email string) (*model.User, error)
    // GetByID looks up a user by UUID.
    GetByID(ctx context.Context, id string) (*model.User, error)
    // Count returns the total number of users; used for the
    // bootstrap-admin rule.
    Count(ctx context.Context) (int64, error)
    // Create inserts a new user. Returns repository.ErrEmailExists
    // on a duplicate email.
    Create(ctx context.Context, u *model.User) error
    // UpdatePasswordHash replaces the stored password hash.
    UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// RefreshTokenStore persists refresh tokens. Rows are never
// deleted; revocation is a flag so replayed tokens remain visible.
type RefreshTokenStore interface {
    Insert(ctx context.Context, t *model.RefreshToken) error
    GetByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
    // Revoke conditionally marks one token revoked
    // (WHERE revoked = false). It reports whether a row actually
    // transitioned: when two rotations race on the same secret only
    // one observes true, and the loser must take the replay path.
    Revoke(ctx context.Context, hash string) (bool, error)
    // RevokeAllForUser marks every non-revoked token of a user
    // revoked. Used on password change/reset and replay containment.
    RevokeAllForUser(ctx context.Context, userID string) error
}

// ResetTokenStore persists single-use password reset tokens.
type ResetTokenStore interface {
    Insert(ctx context.Context, t *model.PasswordResetToken) error
    GetByHash(ctx context.Context, hash string) (*model.PasswordResetToken, error)
    // MarkUsed conditionally consumes a token (WHERE used = false)
    // and reports whether this call was the one that consumed it.
    MarkUsed(ctx context.Context, id string) (bool, error)
}

// HabitStore persists habits and their completion logs.
type HabitStore interface {
    ListByUser(ctx context.Context, userID string) ([]*model.Habit, error)
    Get(ctx context.Context, id, userID string) (*model.Habit, error)
    Create(ctx context.Context, h *model.Habit) error
    Update(ctx context.Context, h *model.Habit) error
    // SoftDelete clears is_active; logs are kept.
    SoftDelete(ctx context.Context, id, userID string) (bool, error)
    MaxSortOrder(ctx context.Context, userID string) (int, error)

    InsertLog(ctx context.Context, l *model.HabitLog) error
    DeleteLog(ctx context.Context, logID, userID string) (bool, error)
    // LogsByDate returns completions per ISO date for one habit.
    LogsByDate(ctx context.Context, habitID string) (map[string]int, error)
    LogsInRange(ctx context.Context, habitID, userID, start, end string) ([]*model.HabitLog, error)

    // Habit XP lives on the user row.
    AddXP(ctx context.Context, userID string, amount int) error
    GetXP(ctx context.Context, userID string) (int, error)
}

// nowFunc is the clock used by the services; injectable in tests so
// expiry boundaries can be pinned to an exact instant.
type nowFunc func() time.Time
