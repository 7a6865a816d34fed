package service

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/unfust/unfust-server/internal/auth"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
)

// ----- in-memory fakes -----

type fakeUserStore struct {
    users map[string]*model.User // keyed by id
}

func newFakeUserStore() *fakeUserStore {
    return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
    for _, u := range f.users {
        if u.Email == email {
            cp := *u
            return &cp, nil
        }
    }
    return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
    u, ok := f.users[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *u
    return &cp, nil
}

func (f *fakeUserStore) Count(_ context.Context) (int64, error) {
    return int64(len(f.users)), nil
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
    for _, have := range f.users {
        if have.Email == u.Email {
            return repository.ErrEmailExists
        }
    }
    cp := *u
    f.users[u.ID] = &cp
    return nil
}

func (f *fakeUserStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
    u, ok := f.users[id]
    if !ok {
        return repository.ErrNotFound
    }
    u.PasswordHash = hash
    return nil
}

type fakeRefreshStore struct {
    tokens map[string]*model.RefreshToken // keyed by hash
    // afterGet runs after GetByHash returns its snapshot; tests use
    // it to mutate state between the read and the conditional revoke.
    afterGet func()
}

func newFakeRefreshStore() *fakeRefreshStore {
    return &fakeRefreshStore{tokens: map[string]*model.RefreshToken{}}
}

func (f *fakeRefreshStore) Insert(_ context.Context, t *model.RefreshToken) error {
    cp := *t
    f.tokens[t.TokenHash] = &cp
    return nil
}

func (f *fakeRefreshStore) GetByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
    t, ok := f.tokens[hash]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *t
    if f.afterGet != nil {
        f.afterGet()
    }
    return &cp, nil
}

func (f *fakeRefreshStore) Revoke(_ context.Context, hash string) (bool, error) {
    t, ok := f.tokens[hash]
    if !ok || t.Revoked {
        return false, nil
    }
    t.Revoked = true
    return true, nil
}

func (f *fakeRefreshStore) RevokeAllForUser(_ context.Context, userID string) error {
    for _, t := range f.tokens {
        if t.UserID == userID {
            t.Revoked = true
        }
    }
    return nil
}

func (f *fakeRefreshStore) activeCount(userID string) int {
    n := 0
    for _, t := range f.tokens {
        if t.UserID == userID && !t.Revoked {
            n++
        }
    }
    return n
}

type fakeResetStore struct {
    tokens map[string]*model.PasswordResetToken // keyed by hash
}

func newFakeResetStore() *fakeResetStore {
    return &fakeResetStore{tokens: map[string]*model.PasswordResetToken{}}
}

func (f *fakeResetStore) Insert(_ context.Context, t *model.PasswordResetToken) error {
    cp := *t
    f.tokens[t.TokenHash] = &cp
    return nil
}

func (f *fakeResetStore) GetByHash(_ context.Context, hash string) (*model.PasswordResetToken, error) {
    t, ok := f.tokens[hash]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *t
    return &cp, nil
}

func (f *fakeResetStore) MarkUsed(_ context.Context, id string) (bool, error) {
    for _, t := range f.tokens {
        if t.ID == id {
            if t.Used {
                return false, nil
            }
            t.Used = true
            return true, nil
        }
    }
    return false, nil
}

// ----- helpers -----

const testBcryptCost = 4 // minimum cost keeps the suite fast

func newTestAuth(t *testing.T) (*AuthService, *fakeUserStore, *fakeRefreshStore, *fakeResetStore) {
    t.Helper()
    users := newFakeUserStore()
    refresh := newFakeRefreshStore()
    resets := newFakeResetStore()
    svc := NewAuthService(users, refresh, resets, testBcryptCost, 30*24*time.Hour)
    return svc, users, refresh, resets
}

func registerActive(t *testing.T, svc *AuthService, email string) *model.User {
    t.Helper()
    u, err := svc.Register(context.Background(), email, "Test", "User", "password123")
    require.NoError(t, err)
    return u
}

// ----- registration -----

func TestRegisterBootstrapAdmin(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)
    ctx := context.Background()

    first, err := svc.Register(ctx, "first@example.com", "First", "One", "password123")
    require.NoError(t, err)
    assert.True(t, first.IsActive, "first user must be active")
    assert.True(t, first.IsAdmin, "first user must be admin")

    second, err := svc.Register(ctx, "second@example.com", "Second", "Two", "password123")
    require.NoError(t, err)
    assert.False(t, second.IsActive, "later users start deactivated")
    assert.False(t, second.IsAdmin, "later users start non-admin")
}

func TestRegisterNormalizesEmail(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)

    u, err := svc.Register(context.Background(), "  MiXeD@Example.COM ", "A", "B", "password123")
    require.NoError(t, err)
    assert.Equal(t, "mixed@example.com", u.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)
    ctx := context.Background()

    registerActive(t, svc, "dup@example.com")
    _, err := svc.Register(ctx, "dup@example.com", "X", "Y", "password123")
    assert.ErrorIs(t, err, repository.ErrEmailExists)
}

// ----- authentication -----

func TestAuthenticate(t *testing.T) {
    svc, users, _, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    got, err := svc.Authenticate(ctx, "admin@example.com", "password123")
    require.NoError(t, err)
    assert.Equal(t, u.ID, got.ID)

    _, err = svc.Authenticate(ctx, "admin@example.com", "wrong-password")
    assert.ErrorIs(t, err, ErrInvalidCredentials)

    _, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
    assert.ErrorIs(t, err, ErrInvalidCredentials)

    users.users[u.ID].IsActive = false
    _, err = svc.Authenticate(ctx, "admin@example.com", "password123")
    assert.ErrorIs(t, err, ErrInvalidCredentials, "inactive account must look like bad credentials")
}

// ----- refresh rotation -----

func TestRotateRefreshToken(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    r1, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    r2, got, err := svc.RotateRefreshToken(ctx, r1)
    require.NoError(t, err)
    assert.Equal(t, u.ID, got.ID)
    assert.NotEqual(t, r1, r2)

    old := refresh.tokens[auth.HashToken(r1)]
    assert.True(t, old.Revoked, "rotated-away token must be revoked")
    assert.Equal(t, 1, refresh.activeCount(u.ID))
}

func TestRotateUnknownToken(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)

    _, _, err := svc.RotateRefreshToken(context.Background(), "no-such-secret")
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestReplayRevokesAllSessions(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    r1, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)
    r2, _, err := svc.RotateRefreshToken(ctx, r1)
    require.NoError(t, err)

    // A second, unrelated session.
    other, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    // Replaying the rotated-away r1 is treated as theft: every
    // session dies, including r2, which was never itself replayed.
    _, _, err = svc.RotateRefreshToken(ctx, r1)
    assert.ErrorIs(t, err, ErrInvalidToken)
    assert.Equal(t, 0, refresh.activeCount(u.ID))
    assert.True(t, refresh.tokens[auth.HashToken(r2)].Revoked)
    assert.True(t, refresh.tokens[auth.HashToken(other)].Revoked)

    // The dead successor cannot rotate either.
    _, _, err = svc.RotateRefreshToken(ctx, r2)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateExpiryBoundary(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    raw, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)
    expiresAt := refresh.tokens[auth.HashToken(raw)].ExpiresAt

    // One instant before expiry the token still rotates.
    svc.now = func() time.Time { return expiresAt.Add(-time.Nanosecond) }
    r2, _, err := svc.RotateRefreshToken(ctx, raw)
    require.NoError(t, err)

    // Exactly at expires_at the token is dead: expiry is inclusive.
    expiresAt = refresh.tokens[auth.HashToken(r2)].ExpiresAt
    svc.now = func() time.Time { return expiresAt }
    _, _, err = svc.RotateRefreshToken(ctx, r2)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateInactiveUser(t *testing.T) {
    svc, users, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    raw, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)
    users.users[u.ID].IsActive = false

    _, _, err = svc.RotateRefreshToken(ctx, raw)
    assert.ErrorIs(t, err, ErrInvalidToken)
    // The attempt burned the token; nothing is left to retry with.
    assert.True(t, refresh.tokens[auth.HashToken(raw)].Revoked)
}

func TestRotateLosesRaceToConcurrentRotation(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    raw, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)
    other, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    // Simulate a concurrent rotation landing between this call's
    // read and its conditional revoke: the snapshot still shows the
    // token active, but the revoke then transitions no row.
    hash := auth.HashToken(raw)
    refresh.afterGet = func() {
        refresh.afterGet = nil
        refresh.tokens[hash].Revoked = true
    }

    _, _, err = svc.RotateRefreshToken(ctx, raw)
    assert.ErrorIs(t, err, ErrInvalidToken)
    // The loser applies the same containment as a replay.
    assert.Equal(t, 0, refresh.activeCount(u.ID))
    assert.True(t, refresh.tokens[auth.HashToken(other)].Revoked)
}

func TestRevokeRefreshTokenIdempotent(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    raw, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    require.NoError(t, svc.RevokeRefreshToken(ctx, raw))
    assert.True(t, refresh.tokens[auth.HashToken(raw)].Revoked)

    // Revoking again, or revoking garbage, is a quiet no-op.
    assert.NoError(t, svc.RevokeRefreshToken(ctx, raw))
    assert.NoError(t, svc.RevokeRefreshToken(ctx, "never-issued"))
}

// ----- password reset -----

func TestPasswordResetFlow(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")

    // Two live sessions that must both die on reset.
    _, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)
    _, err = svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    raw, err := svc.CreatePasswordResetToken(ctx, "admin@example.com")
    require.NoError(t, err)

    require.NoError(t, svc.ResetPassword(ctx, raw, "new-password-1"))
    assert.Equal(t, 0, refresh.activeCount(u.ID), "reset must revoke all sessions")

    _, err = svc.Authenticate(ctx, "admin@example.com", "password123")
    assert.ErrorIs(t, err, ErrInvalidCredentials)
    _, err = svc.Authenticate(ctx, "admin@example.com", "new-password-1")
    assert.NoError(t, err)

    // Single use: the same token cannot reset twice.
    err = svc.ResetPassword(ctx, raw, "new-password-2")
    assert.ErrorIs(t, err, ErrInvalidToken)
    _, err = svc.Authenticate(ctx, "admin@example.com", "new-password-1")
    assert.NoError(t, err, "failed reset must not change the password")
}

func TestPasswordResetUnknownEmail(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)

    _, err := svc.CreatePasswordResetToken(context.Background(), "ghost@example.com")
    assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPasswordResetExpiredToken(t *testing.T) {
    svc, users, _, resets := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")
    oldHash := users.users[u.ID].PasswordHash

    raw, err := svc.CreatePasswordResetToken(ctx, "admin@example.com")
    require.NoError(t, err)
    expiresAt := resets.tokens[auth.HashToken(raw)].ExpiresAt

    svc.now = func() time.Time { return expiresAt }
    err = svc.ResetPassword(ctx, raw, "new-password-1")
    assert.ErrorIs(t, err, ErrInvalidToken)
    assert.Equal(t, oldHash, users.users[u.ID].PasswordHash, "expired reset must have no side effects")
    assert.False(t, resets.tokens[auth.HashToken(raw)].Used)
}

func TestPasswordResetBogusToken(t *testing.T) {
    svc, _, _, _ := newTestAuth(t)

    err := svc.ResetPassword(context.Background(), "not-a-token", "new-password-1")
    assert.ErrorIs(t, err, ErrInvalidToken)
}

// ----- change password -----

func TestChangePassword(t *testing.T) {
    svc, _, refresh, _ := newTestAuth(t)
    ctx := context.Background()
    u := registerActive(t, svc, "admin@example.com")
    _, err := svc.CreateRefreshToken(ctx, u.ID)
    require.NoError(t, err)

    err = svc.ChangePassword(ctx, u.ID, "wrong-password", "new-password-1")
    assert.ErrorIs(t, err, ErrInvalidCredentials)
    assert.Equal(t, 1, refresh.activeCount(u.ID), "failed change must not touch sessions")

    require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "new-password-1"))
    assert.Equal(t, 0, refresh.activeCount(u.ID))
    _, err = svc.Authenticate(ctx, "admin@example.com", "new-password-1")
    assert.NoError(t, err)
}
