package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.
// The plain token is never stored; only its SHA-256 hash. A row is
// usable while Revoked is false and the current time is before
// ExpiresAt (the expiry instant itself counts as expired). Rows
// are never deleted so that reuse of an already-revoked token can
// be recognized as replay.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the opaque secret.
//  ExpiresAt – expiration timestamp.
//  Revoked   – set on rotation, logout, password change or replay.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        string    // refresh_tokens.id
    UserID    string    // refresh_tokens.user_id
    TokenHash string    // refresh_tokens.token_hash
    ExpiresAt time.Time // refresh_tokens.expires_at
    Revoked   bool      // refresh_tokens.revoked
    CreatedAt time.Time // refresh_tokens.created_at
}

// PasswordResetToken models an entry in the `password_reset_tokens`
// table. Reset tokens are single use: once Used is set the row is
// permanently inert regardless of expiry.
//
// Fields:
//  ID        – UUID primary key.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the opaque secret.
//  ExpiresAt – expiration timestamp (one hour after issuance).
//  Used      – set when the token is consumed.
//  CreatedAt – timestamp of creation.
type PasswordResetToken struct {
    ID        string    // password_reset_tokens.id
    UserID    string    // password_reset_tokens.user_id
    TokenHash string    // password_reset_tokens.token_hash
    ExpiresAt time.Time // password_reset_tokens.expires_at
    Used      bool      // password_reset_tokens.used
    CreatedAt time.Time // password_reset_tokens.created_at
}
