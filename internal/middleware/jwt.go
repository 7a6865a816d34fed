package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/unfust/unfust-server/internal/auth" // access token validation
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject and admin claims into the request
// context. The provided secret must match the one used when issuing
// tokens. Handlers behind this middleware read the authenticated
// identity via `c.Get("user_id")` and `c.Get("is_admin")`.
//
// Every failure (missing header, malformed token, bad signature,
// expiry, wrong token type) produces the same 401 body. The cause
// is deliberately not surfaced: differing responses would let a
// client probe why a token failed.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            claims, ok := auth.ParseAccessToken(secret, raw)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
            }

            c.Set("user_id", claims.UserID)
            c.Set("is_admin", claims.IsAdmin)
            return next(c)
        }
    }
}

// UserID extracts the authenticated user's id placed in the context
// by JWTAuth. Handlers behind the middleware may assume it is set.
func UserID(c echo.Context) string {
    if v, ok := c.Get("user_id").(string); ok {
        return v
    }
    return ""
}

// IsAdmin reports the admin claim of the authenticated user.
func IsAdmin(c echo.Context) bool {
    v, _ := c.Get("is_admin").(bool)
    return v
}
