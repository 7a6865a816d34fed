package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/unfust/unfust-server/internal/model"
)

// newTestDB returns a sqlmock-backed database and a cleanup
// function. QueryMatcherEqual makes expectations full case
// sensitive string matches instead of regular expressions.
func newTestDB(t *testing.T) (sqlmock.Sqlmock, *TokenRepo, func()) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
    require.NoError(t, err)
    cleanup := func() {
        assert.NoError(t, mock.ExpectationsWereMet())
        db.Close()
    }
    return mock, NewTokenRepo(db), cleanup
}

func TestTokenRevokeConditional(t *testing.T) {
    mock, repo, cleanup := newTestDB(t)
    defer cleanup()

    const q = "UPDATE refresh_tokens SET revoked=1 WHERE token_hash=? AND revoked=0"

    // First revoke transitions the row.
    mock.ExpectExec(q).WithArgs("hash-1").WillReturnResult(sqlmock.NewResult(0, 1))
    changed, err := repo.Revoke(context.Background(), "hash-1")
    require.NoError(t, err)
    assert.True(t, changed)

    // Second revoke of the same hash matches no row: the condition
    // is what lets racing rotations detect the loser.
    mock.ExpectExec(q).WithArgs("hash-1").WillReturnResult(sqlmock.NewResult(0, 0))
    changed, err = repo.Revoke(context.Background(), "hash-1")
    require.NoError(t, err)
    assert.False(t, changed)
}

func TestTokenGetByHash(t *testing.T) {
    mock, repo, cleanup := newTestDB(t)
    defer cleanup()

    const q = "SELECT id, user_id, token_hash, expires_at, revoked, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1"
    now := time.Now().UTC()

    // Revoked rows come back as-is; the caller needs them to
    // recognize replay.
    rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked", "created_at"}).
        AddRow("t1", "u1", "hash-1", now.Add(time.Hour), true, now)
    mock.ExpectQuery(q).WithArgs("hash-1").WillReturnRows(rows)

    tok, err := repo.GetByHash(context.Background(), "hash-1")
    require.NoError(t, err)
    assert.True(t, tok.Revoked)
    assert.Equal(t, "u1", tok.UserID)

    // Unknown hashes map to the package sentinel.
    mock.ExpectQuery(q).WithArgs("nope").WillReturnRows(sqlmock.NewRows(
        []string{"id", "user_id", "token_hash", "expires_at", "revoked", "created_at"}))
    _, err = repo.GetByHash(context.Background(), "nope")
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenInsertAndRevokeAll(t *testing.T) {
    mock, repo, cleanup := newTestDB(t)
    defer cleanup()

    now := time.Now().UTC()
    tok := &model.RefreshToken{
        ID: "t1", UserID: "u1", TokenHash: "hash-1",
        ExpiresAt: now.Add(time.Hour), CreatedAt: now,
    }
    mock.ExpectExec("INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at) VALUES (?,?,?,?,?,?)").
        WithArgs("t1", "u1", "hash-1", tok.ExpiresAt, false, now).
        WillReturnResult(sqlmock.NewResult(1, 1))
    require.NoError(t, repo.Insert(context.Background(), tok))

    mock.ExpectExec("UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0").
        WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))
    require.NoError(t, repo.RevokeAllForUser(context.Background(), "u1"))
}

func TestUserCreateDuplicateEmail(t *testing.T) {
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
    require.NoError(t, err)
    defer db.Close()
    repo := NewUserRepo(db)

    now := time.Now().UTC()
    u := &model.User{ID: "u1", Email: "dup@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}

    mock.ExpectExec("INSERT INTO users (id,email,first_name,last_name,password_hash,is_active,is_admin,notes,location,habit_xp,created_at,updated_at) VALUES (?,?,?,?,?,?,?,NULLIF(?,''),NULLIF(?,''),?,?,?)").
        WithArgs("u1", "dup@example.com", "", "", "x", false, false, "", "", 0, now, now).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'dup@example.com' for key 'users.email'"))

    err = repo.Create(context.Background(), u)
    assert.ErrorIs(t, err, ErrEmailExists)
    assert.NoError(t, mock.ExpectationsWereMet())
}
