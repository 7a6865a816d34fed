package handler

import (
    "context"  // context with cancellation for service calls
    "errors"   // sentinel error matching
    "fmt"      // reset link formatting
    "net/http" // HTTP status codes and cookie primitives
    "strings"  // input normalization
    "time"     // timeouts and cookie lifetimes

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/unfust/unfust-server/internal/auth"       // access token minting
    "github.com/unfust/unfust-server/internal/config"     // app configuration
    "github.com/unfust/unfust-server/internal/middleware" // authenticated identity helpers
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/queue"      // password reset mail events
    "github.com/unfust/unfust-server/internal/repository" // repository sentinels
    "github.com/unfust/unfust-server/internal/service"    // auth business logic
)

// dbTimeout bounds every handler's downstream calls.
const dbTimeout = 5 * time.Second

// publishPasswordReset is swapped out in tests so the suite runs
// without a broker.
var publishPasswordReset = queue.PublishPasswordReset

// refreshCookieName is the cookie carrying the opaque refresh
// secret. The cookie is scoped to /api/auth so browsers never send
// it to any other endpoint.
const refreshCookieName = "refresh_token"

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg  config.Config
    Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, a *service.AuthService) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Auth: a}
}

// ----- DTOs -----

type registerReq struct {
    Email     string `json:"email"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Password  string `json:"password"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type forgotReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    Token       string `json:"token"`
    NewPassword string `json:"new_password"`
}

type tokenResp struct {
    AccessToken string `json:"access_token"`
    TokenType   string `json:"token_type"`
}

// userPayload is the public user representation shared by the auth
// and user endpoints. The password hash never leaves the server.
type userPayload struct {
    ID        string    `json:"id"`
    Email     string    `json:"email"`
    FirstName string    `json:"first_name"`
    LastName  string    `json:"last_name"`
    IsActive  bool      `json:"is_active"`
    IsAdmin   bool      `json:"is_admin"`
    Notes     string    `json:"notes"`
    Location  string    `json:"location"`
    CreatedAt time.Time `json:"created_at"`
}

func toUserPayload(u *model.User) userPayload {
    return userPayload{
        ID:        u.ID,
        Email:     u.Email,
        FirstName: u.FirstName,
        LastName:  u.LastName,
        IsActive:  u.IsActive,
        IsAdmin:   u.IsAdmin,
        Notes:     u.Notes,
        Location:  u.Location,
        CreatedAt: u.CreatedAt,
    }
}

// ----- cookie helpers -----

// setRefreshCookie stores the raw refresh secret in an HttpOnly,
// SameSite=Lax cookie scoped to the auth endpoints. Secure is set
// in prod so the secret never travels over plain HTTP there.
func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string) {
    c.SetCookie(&http.Cookie{
        Name:     refreshCookieName,
        Value:    raw,
        Path:     "/api/auth",
        MaxAge:   h.Cfg.RefreshTTLDays * 24 * 3600,
        HttpOnly: true,
        Secure:   h.Cfg.Env == "prod",
        SameSite: http.SameSiteLaxMode,
    })
}

// clearRefreshCookie expires the refresh cookie on the client.
func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     refreshCookieName,
        Value:    "",
        Path:     "/api/auth",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   h.Cfg.Env == "prod",
        SameSite: http.SameSiteLaxMode,
    })
}

// ----- handlers -----

// Register creates a user account. The very first account becomes
// the bootstrap administrator; everyone else starts deactivated and
// waits for an admin. Duplicate emails answer 409; on this
// endpoint the existence of an account is deliberately disclosed,
// the enumeration-safe behavior lives on forgot-password.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || !strings.Contains(req.Email, "@") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
    }
    if len(req.Password) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.Register(ctx, req.Email, req.FirstName, req.LastName, req.Password)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    // Registration starts a session right away, same shape as login.
    access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := h.Auth.CreateRefreshToken(ctx, u.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }

    h.setRefreshCookie(c, refresh)
    return c.JSON(http.StatusCreated, tokenResp{AccessToken: access.Token, TokenType: "bearer"})
}

// Login verifies credentials and starts a session: a short-lived
// access JWT in the body and a fresh refresh secret in the cookie.
// Unknown email, wrong password and deactivated account all get the
// same 401 so none of them can be told apart.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.Authenticate(ctx, req.Email, req.Password)
    if err != nil {
        if errors.Is(err, service.ErrInvalidCredentials) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
    }

    access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := h.Auth.CreateRefreshToken(ctx, u.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }

    h.setRefreshCookie(c, refresh)
    return c.JSON(http.StatusOK, tokenResp{AccessToken: access.Token, TokenType: "bearer"})
}

// Refresh rotates the refresh secret from the cookie and returns a
// new access token. Every failure answers the same 401 and clears
// the cookie; a failed rotation leaves nothing worth retrying with.
func (h *AuthHandler) Refresh(c echo.Context) error {
    cookie, err := c.Cookie(refreshCookieName)
    if err != nil || cookie.Value == "" {
        h.clearRefreshCookie(c)
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    newRaw, u, err := h.Auth.RotateRefreshToken(ctx, cookie.Value)
    if err != nil {
        if errors.Is(err, service.ErrInvalidToken) {
            h.clearRefreshCookie(c)
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
    }

    access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.IsAdmin, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    h.setRefreshCookie(c, newRaw)
    return c.JSON(http.StatusOK, tokenResp{AccessToken: access.Token, TokenType: "bearer"})
}

// Logout revokes the session behind the refresh cookie and clears
// it. Revocation is idempotent, so logging out twice (or with a
// stale cookie) still answers 204.
func (h *AuthHandler) Logout(c echo.Context) error {
    cookie, err := c.Cookie(refreshCookieName)
    if err == nil && cookie.Value != "" {
        ctx, cancel := reqCtx(c)
        defer cancel()
        if err := h.Auth.RevokeRefreshToken(ctx, cookie.Value); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
    }
    h.clearRefreshCookie(c)
    return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the authenticated user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Auth.RevokeAllRefreshTokens(ctx, middleware.UserID(c)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
    }
    h.clearRefreshCookie(c)
    return c.NoContent(http.StatusNoContent)
}

// ForgotPassword issues a reset token and hands the mail off to the
// queue. The response is byte-identical whether or not the email
// belongs to an account; only timing could differ. Broker errors
// are swallowed for the same reason; the answer never changes.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req forgotReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    raw, err := h.Auth.CreatePasswordResetToken(ctx, req.Email)
    if err == nil {
        ev := queue.PasswordResetRequestedEvent{
            Email:       strings.ToLower(strings.TrimSpace(req.Email)),
            ResetURL:    fmt.Sprintf("%s/reset-password?token=%s", h.Cfg.FrontendURL, raw),
            RequestedAt: time.Now().UTC().Format(time.RFC3339),
        }
        _ = publishPasswordReset(ctx, ev)
    } else if !errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset request failed"})
    }

    return c.JSON(http.StatusOK, echo.Map{"message": "if the email exists, a reset link has been sent"})
}

// ResetPassword consumes a reset token and stores the new password.
// Unknown, used and expired tokens all answer the same 400.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Token == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
    }
    if len(req.NewPassword) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
        if errors.Is(err, service.ErrInvalidToken) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
