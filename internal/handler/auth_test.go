package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/unfust/unfust-server/internal/config"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/queue"
    "github.com/unfust/unfust-server/internal/repository"
    "github.com/unfust/unfust-server/internal/service"
)

// ----- in-memory stores backing a real AuthService -----

type memUsers struct{ users map[string]*model.User }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
    for _, u := range m.users {
        if u.Email == email {
            return u, nil
        }
    }
    return nil, repository.ErrNotFound
}
func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
    if u, ok := m.users[id]; ok {
        return u, nil
    }
    return nil, repository.ErrNotFound
}
func (m *memUsers) Count(_ context.Context) (int64, error) { return int64(len(m.users)), nil }
func (m *memUsers) Create(_ context.Context, u *model.User) error {
    for _, have := range m.users {
        if have.Email == u.Email {
            return repository.ErrEmailExists
        }
    }
    m.users[u.ID] = u
    return nil
}
func (m *memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
    if u, ok := m.users[id]; ok {
        u.PasswordHash = hash
        return nil
    }
    return repository.ErrNotFound
}

type memRefresh struct{ tokens map[string]*model.RefreshToken }

func (m *memRefresh) Insert(_ context.Context, t *model.RefreshToken) error {
    m.tokens[t.TokenHash] = t
    return nil
}
func (m *memRefresh) GetByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
    if t, ok := m.tokens[hash]; ok {
        cp := *t
        return &cp, nil
    }
    return nil, repository.ErrNotFound
}
func (m *memRefresh) Revoke(_ context.Context, hash string) (bool, error) {
    t, ok := m.tokens[hash]
    if !ok || t.Revoked {
        return false, nil
    }
    t.Revoked = true
    return true, nil
}
func (m *memRefresh) RevokeAllForUser(_ context.Context, userID string) error {
    for _, t := range m.tokens {
        if t.UserID == userID {
            t.Revoked = true
        }
    }
    return nil
}

type memResets struct{ tokens map[string]*model.PasswordResetToken }

func (m *memResets) Insert(_ context.Context, t *model.PasswordResetToken) error {
    m.tokens[t.TokenHash] = t
    return nil
}
func (m *memResets) GetByHash(_ context.Context, hash string) (*model.PasswordResetToken, error) {
    if t, ok := m.tokens[hash]; ok {
        cp := *t
        return &cp, nil
    }
    return nil, repository.ErrNotFound
}
func (m *memResets) MarkUsed(_ context.Context, id string) (bool, error) {
    for _, t := range m.tokens {
        if t.ID == id && !t.Used {
            t.Used = true
            return true, nil
        }
    }
    return false, nil
}

func newTestHandler(t *testing.T) *AuthHandler {
    t.Helper()
    svc := service.NewAuthService(
        &memUsers{users: map[string]*model.User{}},
        &memRefresh{tokens: map[string]*model.RefreshToken{}},
        &memResets{tokens: map[string]*model.PasswordResetToken{}},
        4, // minimum bcrypt cost keeps the suite fast
        30*24*time.Hour,
    )
    cfg := config.Config{
        Env:            "test",
        JWTSecret:      "test-secret",
        AccessTTLMin:   15,
        RefreshTTLDays: 30,
        FrontendURL:    "http://localhost:5173",
    }
    return NewAuthHandler(cfg, svc)
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    for _, c := range cookies {
        req.AddCookie(c)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func newAuthEcho(h *AuthHandler) *echo.Echo {
    e := echo.New()
    g := e.Group("/api/auth")
    g.POST("/register", h.Register)
    g.POST("/login", h.Login)
    g.POST("/refresh", h.Refresh)
    g.POST("/forgot-password", h.ForgotPassword)
    g.POST("/reset-password", h.ResetPassword)
    return e
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
    t.Helper()
    for _, c := range rec.Result().Cookies() {
        if c.Name == refreshCookieName {
            return c
        }
    }
    t.Fatal("no refresh_token cookie in response")
    return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)

    rec := doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","first_name":"A","last_name":"B","password":"password123"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    // Registration starts a session: same shape as login.
    assert.Contains(t, rec.Body.String(), `"access_token"`)
    assert.NotEmpty(t, refreshCookie(t, rec).Value)

    rec = doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"admin@example.com","password":"password123"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"access_token"`)
    assert.Contains(t, rec.Body.String(), `"token_type":"bearer"`)

    c := refreshCookie(t, rec)
    assert.NotEmpty(t, c.Value)
    assert.True(t, c.HttpOnly)
    assert.Equal(t, "/api/auth", c.Path)
    assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
    assert.False(t, c.Secure, "Secure is reserved for prod")
    assert.Equal(t, 30*24*3600, c.MaxAge)
}

func TestLoginUniformFailure(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)
    doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)

    wrongPass := doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"admin@example.com","password":"nope-nope-nope"}`)
    unknown := doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"ghost@example.com","password":"password123"}`)

    assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
    assert.Equal(t, http.StatusUnauthorized, unknown.Code)
    // Same status, same body: nothing distinguishes the causes.
    assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestRegisterDuplicateDiscloses(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)

    rec := doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)
    require.Equal(t, http.StatusCreated, rec.Code)

    rec = doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshRotatesCookie(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)
    doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)
    login := doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"admin@example.com","password":"password123"}`)
    old := refreshCookie(t, login)

    rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "", old)
    require.Equal(t, http.StatusOK, rec.Code)
    fresh := refreshCookie(t, rec)
    assert.NotEqual(t, old.Value, fresh.Value)

    // Replaying the rotated-away cookie fails and clears it.
    rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", old)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    cleared := refreshCookie(t, rec)
    assert.Empty(t, cleared.Value)
    assert.Less(t, cleared.MaxAge, 0)

    // The replay killed every session, the fresh cookie included.
    rec = doJSON(e, http.MethodPost, "/api/auth/refresh", "", fresh)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)

    rec := doJSON(e, http.MethodPost, "/api/auth/refresh", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordEnumerationSafe(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)
    doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)

    var published []queue.PasswordResetRequestedEvent
    orig := publishPasswordReset
    publishPasswordReset = func(_ context.Context, ev queue.PasswordResetRequestedEvent) error {
        published = append(published, ev)
        return nil
    }
    defer func() { publishPasswordReset = orig }()

    known := doJSON(e, http.MethodPost, "/api/auth/forgot-password",
        `{"email":"admin@example.com"}`)
    unknown := doJSON(e, http.MethodPost, "/api/auth/forgot-password",
        `{"email":"ghost@example.com"}`)

    // Identical responses whether or not the account exists.
    assert.Equal(t, http.StatusOK, known.Code)
    assert.Equal(t, http.StatusOK, unknown.Code)
    assert.Equal(t, known.Body.String(), unknown.Body.String())

    // Only the real account produced a mail event.
    require.Len(t, published, 1)
    assert.Equal(t, "admin@example.com", published[0].Email)
    assert.True(t, strings.HasPrefix(published[0].ResetURL,
        "http://localhost:5173/reset-password?token="))
}

func TestResetPasswordFlow(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)
    doJSON(e, http.MethodPost, "/api/auth/register",
        `{"email":"admin@example.com","password":"password123"}`)

    var ev queue.PasswordResetRequestedEvent
    orig := publishPasswordReset
    publishPasswordReset = func(_ context.Context, e queue.PasswordResetRequestedEvent) error {
        ev = e
        return nil
    }
    defer func() { publishPasswordReset = orig }()

    rec := doJSON(e, http.MethodPost, "/api/auth/forgot-password",
        `{"email":"admin@example.com"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    token := strings.TrimPrefix(ev.ResetURL, "http://localhost:5173/reset-password?token=")
    require.NotEmpty(t, token)

    rec = doJSON(e, http.MethodPost, "/api/auth/reset-password",
        `{"token":"`+token+`","new_password":"brand-new-pass"}`)
    require.Equal(t, http.StatusOK, rec.Code)

    // Old password is gone, the new one works.
    rec = doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"admin@example.com","password":"password123"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = doJSON(e, http.MethodPost, "/api/auth/login",
        `{"email":"admin@example.com","password":"brand-new-pass"}`)
    assert.Equal(t, http.StatusOK, rec.Code)

    // The token was consumed on first use.
    rec = doJSON(e, http.MethodPost, "/api/auth/reset-password",
        `{"token":"`+token+`","new_password":"yet-another-pass"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPasswordValidation(t *testing.T) {
    h := newTestHandler(t)
    e := newAuthEcho(h)

    rec := doJSON(e, http.MethodPost, "/api/auth/reset-password",
        `{"token":"whatever","new_password":"short"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec = doJSON(e, http.MethodPost, "/api/auth/reset-password",
        `{"token":"never-issued","new_password":"long-enough-pw"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"invalid or expired token"}`, rec.Body.String())
}
