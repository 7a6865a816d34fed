package auth // package auth provides token minting, validation and hashing primitives

import (
    "crypto/rand"     // secure random number generation
    "crypto/sha256"   // SHA-256 hashing for opaque tokens
    "encoding/base64" // url-safe encoding of opaque secrets
    "encoding/hex"    // hex encoding of token digests
    "time"            // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// opaqueTokenBytes is the entropy of refresh and reset secrets.
// 48 random bytes encode to 64 url-safe characters.
const opaqueTokenBytes = 48

// AccessToken represents a signed JWT access token along with its
// expiry. Access tokens are short-lived, stateless and carried in
// the Authorization header on every protected request; all
// revocation semantics live on the refresh token layer.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// AccessClaims is the validated content of an access token.
type AccessClaims struct {
    UserID  string // subject, the user's UUID
    IsAdmin bool   // admin flag copied from the user record at mint time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The JWT
// embeds the subject (sub), the admin flag, a token-type marker so
// that refresh-shaped tokens can never pass as access tokens, the
// expiration (exp) and issued-at (iat) timestamps.
func NewAccessToken(secret, userID string, isAdmin bool, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":      userID,
        "is_admin": isAdmin,
        "type":     "access",
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature, expiry and token type of
// an access token. It returns (nil, false) for ANY failure
// (malformed, tampered, expired, wrong signing method or wrong type)
// without distinguishing the reason. Callers must treat a false
// result uniformly as "unauthenticated"; surfacing the failure cause
// would hand an oracle to anyone probing token validity.
func ParseAccessToken(secret, raw string) (*AccessClaims, bool) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, jwt.ErrTokenSignatureInvalid
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return nil, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, false
    }
    if typ, _ := claims["type"].(string); typ != "access" {
        return nil, false
    }
    sub, _ := claims["sub"].(string)
    if sub == "" {
        return nil, false
    }
    isAdmin, _ := claims["is_admin"].(bool)
    return &AccessClaims{UserID: sub, IsAdmin: isAdmin}, true
}

// NewOpaqueToken returns a cryptographically secure random secret
// used for refresh and password-reset tokens. Only the SHA-256 hash
// of the returned value is ever persisted.
func NewOpaqueToken() (string, error) {
    buf := make([]byte, opaqueTokenBytes)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hash of an opaque token as a hex
// string. Storing only the hash prevents attackers from using
// stolen database rows to mint sessions.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
