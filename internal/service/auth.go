package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/unfust/unfust-server/internal/auth"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
)

// resetTokenTTL is the lifetime of a password reset token.
const resetTokenTTL = time.Hour

// AuthService owns the three auth entities (users, refresh tokens,
// reset tokens) and is their only mutator. It implements the
// refresh rotation state machine: a token is ACTIVE until it is
// rotated away, revoked or expired, and all three end states are
// terminal.
type AuthService struct {
    users      UserStore
    refresh    RefreshTokenStore
    resets     ResetTokenStore
    bcryptCost int
    refreshTTL time.Duration
    now        nowFunc
}

// NewAuthService wires an AuthService. refreshTTL is the lifetime
// of newly issued refresh tokens.
func NewAuthService(users UserStore, refresh RefreshTokenStore, resets ResetTokenStore, bcryptCost int, refreshTTL time.Duration) *AuthService {
    return &AuthService{
        users:      users,
        refresh:    refresh,
        resets:     resets,
        bcryptCost: bcryptCost,
        refreshTTL: refreshTTL,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// Register creates a user. The first-ever registration becomes the
// bootstrap administrator (active + admin); every later user starts
// inactive and non-admin and needs explicit activation. The count
// check and insert are two statements, so two simultaneous first
// registrations could in principle both observe an empty store; the
// window is accepted and documented rather than papered over.
func (s *AuthService) Register(ctx context.Context, email, firstName, lastName, password string) (*model.User, error) {
    count, err := s.users.Count(ctx)
    if err != nil {
        return nil, err
    }
    hash, err := auth.HashPassword(password, s.bcryptCost)
    if err != nil {
        return nil, err
    }
    now := s.now()
    u := &model.User{
        ID:           uuid.NewString(),
        Email:        strings.ToLower(strings.TrimSpace(email)),
        FirstName:    strings.TrimSpace(firstName),
        LastName:     strings.TrimSpace(lastName),
        PasswordHash: hash,
        IsActive:     count == 0,
        IsAdmin:      count == 0,
        CreatedAt:    now,
        UpdatedAt:    now,
    }
    if err := s.users.Create(ctx, u); err != nil {
        return nil, err
    }
    return u, nil
}

// Authenticate checks email+password. Unknown email, wrong password
// and inactive account all return ErrInvalidCredentials; the caller
// must not distinguish the cases.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
    u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
    if errors.Is(err, repository.ErrNotFound) {
        return nil, ErrInvalidCredentials
    }
    if err != nil {
        return nil, err
    }
    if !u.IsActive {
        return nil, ErrInvalidCredentials
    }
    if !auth.VerifyPassword(u.PasswordHash, password) {
        return nil, ErrInvalidCredentials
    }
    return u, nil
}

// CreateRefreshToken mints a new opaque refresh secret for a user,
// persists only its hash, and returns the raw secret to the caller,
// who is responsible for transmitting it (the handlers use an
// HttpOnly cookie).
func (s *AuthService) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
    raw, err := auth.NewOpaqueToken()
    if err != nil {
        return "", err
    }
    now := s.now()
    t := &model.RefreshToken{
        ID:        uuid.NewString(),
        UserID:    userID,
        TokenHash: auth.HashToken(raw),
        ExpiresAt: now.Add(s.refreshTTL),
        CreatedAt: now,
    }
    if err := s.refresh.Insert(ctx, t); err != nil {
        return "", err
    }
    return raw, nil
}

// RotateRefreshToken exchanges a refresh secret for a new one.
// Validation order matters: existence, then revoked (so replay is
// detected even on tokens that have also expired), then expiry,
// then owner-active. Reuse of a revoked token is treated as
// evidence of theft and every live session of that account is
// killed, not just the stolen one.
//
// The revoke step is a conditional update; if a concurrent rotation
// of the same secret got there first, this call observes no row
// transition and applies the same containment. Revocation happens
// before the successor is minted so an abandoned request can only
// fail closed: it can never leave two live equivalent tokens.
func (s *AuthService) RotateRefreshToken(ctx context.Context, raw string) (string, *model.User, error) {
    t, err := s.refresh.GetByHash(ctx, auth.HashToken(raw))
    if errors.Is(err, repository.ErrNotFound) {
        return "", nil, ErrInvalidToken
    }
    if err != nil {
        return "", nil, err
    }
    if t.Revoked {
        // Replay: the secret was already rotated away or revoked.
        if err := s.refresh.RevokeAllForUser(ctx, t.UserID); err != nil {
            return "", nil, err
        }
        return "", nil, ErrInvalidToken
    }
    if !s.now().Before(t.ExpiresAt) {
        return "", nil, ErrInvalidToken
    }
    changed, err := s.refresh.Revoke(ctx, t.TokenHash)
    if err != nil {
        return "", nil, err
    }
    if !changed {
        // Lost the race against a concurrent rotation of the same
        // secret: same containment as a replay.
        if err := s.refresh.RevokeAllForUser(ctx, t.UserID); err != nil {
            return "", nil, err
        }
        return "", nil, ErrInvalidToken
    }
    u, err := s.users.GetByID(ctx, t.UserID)
    if errors.Is(err, repository.ErrNotFound) {
        return "", nil, ErrInvalidToken
    }
    if err != nil {
        return "", nil, err
    }
    if !u.IsActive {
        // The old token is already revoked at this point; an
        // inactive user simply cannot mint a successor.
        return "", nil, ErrInvalidToken
    }
    newRaw, err := s.CreateRefreshToken(ctx, u.ID)
    if err != nil {
        return "", nil, err
    }
    return newRaw, u, nil
}

// RevokeRefreshToken marks one token revoked. It is idempotent:
// revoking an unknown or already-revoked secret is a no-op.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, raw string) error {
    _, err := s.refresh.Revoke(ctx, auth.HashToken(raw))
    return err
}

// RevokeAllRefreshTokens kills every live session of a user.
func (s *AuthService) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
    return s.refresh.RevokeAllForUser(ctx, userID)
}

// CreatePasswordResetToken issues a one-hour single-use reset token
// for the given email and returns the raw secret to be mailed.
// Unknown emails return repository.ErrNotFound; the HTTP layer must
// respond identically either way to prevent account enumeration;
// the distinction exists only for the internal caller.
func (s *AuthService) CreatePasswordResetToken(ctx context.Context, email string) (string, error) {
    u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
    if err != nil {
        return "", err
    }
    raw, err := auth.NewOpaqueToken()
    if err != nil {
        return "", err
    }
    now := s.now()
    t := &model.PasswordResetToken{
        ID:        uuid.NewString(),
        UserID:    u.ID,
        TokenHash: auth.HashToken(raw),
        ExpiresAt: now.Add(resetTokenTTL),
        CreatedAt: now,
    }
    if err := s.resets.Insert(ctx, t); err != nil {
        return "", err
    }
    return raw, nil
}

// ResetPassword consumes a reset token: marks it used, stores the
// new password hash and revokes every refresh token of the user so
// a reset never leaves old sessions alive. Unknown, used and
// expired tokens fail with ErrInvalidToken and no side effects.
func (s *AuthService) ResetPassword(ctx context.Context, raw, newPassword string) error {
    t, err := s.resets.GetByHash(ctx, auth.HashToken(raw))
    if errors.Is(err, repository.ErrNotFound) {
        return ErrInvalidToken
    }
    if err != nil {
        return err
    }
    if t.Used {
        return ErrInvalidToken
    }
    if !s.now().Before(t.ExpiresAt) {
        return ErrInvalidToken
    }
    consumed, err := s.resets.MarkUsed(ctx, t.ID)
    if err != nil {
        return err
    }
    if !consumed {
        return ErrInvalidToken
    }
    hash, err := auth.HashPassword(newPassword, s.bcryptCost)
    if err != nil {
        return err
    }
    if err := s.users.UpdatePasswordHash(ctx, t.UserID, hash); err != nil {
        return err
    }
    return s.refresh.RevokeAllForUser(ctx, t.UserID)
}

// ChangePassword verifies the current password, stores the new hash
// and revokes all sessions, exactly like a reset does.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
    u, err := s.users.GetByID(ctx, userID)
    if errors.Is(err, repository.ErrNotFound) {
        return ErrInvalidCredentials
    }
    if err != nil {
        return err
    }
    if !auth.VerifyPassword(u.PasswordHash, currentPassword) {
        return ErrInvalidCredentials
    }
    hash, err := auth.HashPassword(newPassword, s.bcryptCost)
    if err != nil {
        return err
    }
    if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
        return err
    }
    return s.refresh.RevokeAllForUser(ctx, userID)
}
