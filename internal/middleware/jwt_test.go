package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/unfust/unfust-server/internal/auth"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, header string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    g := e.Group("", mw...)
    g.GET("/protected", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "user_id":  UserID(c),
            "is_admin": IsAdmin(c),
        })
    })

    req := httptest.NewRequest(http.MethodGet, "/protected", nil)
    if header != "" {
        req.Header.Set("Authorization", header)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAccepts(t *testing.T) {
    tok, err := auth.NewAccessToken(testSecret, "user-123", true, time.Minute)
    require.NoError(t, err)

    rec := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"user_id":"user-123"`)
    assert.Contains(t, rec.Body.String(), `"is_admin":true`)
}

func TestJWTAuthUniformRejection(t *testing.T) {
    expired, err := auth.NewAccessToken(testSecret, "user-123", false, -time.Minute)
    require.NoError(t, err)
    wrongSecret, err := auth.NewAccessToken("other-secret", "user-123", false, time.Minute)
    require.NoError(t, err)

    tests := []struct {
        name   string
        header string
    }{
        {"missing header", ""},
        {"not bearer", "Basic abc"},
        {"garbage token", "Bearer not.a.jwt"},
        {"expired", "Bearer " + expired.Token},
        {"wrong secret", "Bearer " + wrongSecret.Token},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := runProtected(t, tt.header, JWTAuth(testSecret))
            assert.Equal(t, http.StatusUnauthorized, rec.Code)
            // Every rejection looks the same.
            assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())
        })
    }
}

func TestRequireAdmin(t *testing.T) {
    adminTok, err := auth.NewAccessToken(testSecret, "admin-1", true, time.Minute)
    require.NoError(t, err)
    userTok, err := auth.NewAccessToken(testSecret, "user-1", false, time.Minute)
    require.NoError(t, err)

    rec := runProtected(t, "Bearer "+adminTok.Token, JWTAuth(testSecret), RequireAdmin())
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = runProtected(t, "Bearer "+userTok.Token, JWTAuth(testSecret), RequireAdmin())
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
}
