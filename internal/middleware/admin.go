package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireAdmin returns a middleware enforcing that the
// authenticated user carries the admin claim. It assumes JWTAuth
// ran earlier in the chain. Unlike authentication failures, this
// response is allowed to be distinct (403): the caller's identity
// is already established, so no enumeration risk exists.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !IsAdmin(c) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
