package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/redis/go-redis/v9"

    "github.com/unfust/unfust-server/internal/config"
    "github.com/unfust/unfust-server/internal/handler"    // import the handlers that implement business logic
    "github.com/unfust/unfust-server/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service
// is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/api/health", handler.Health)
}

// RegisterAuth registers all authentication-related routes. The
// whole group sits behind the Redis token bucket: login, refresh and
// forgot-password are the endpoints worth brute-forcing, so they are
// the ones that get rate limited. When Redis is unavailable the
// limiter becomes a no-op and requests pass through.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rdb *redis.Client, jwtSecret string) {
    rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    g := e.Group("/api/auth", rl)
    // Account creation; the first account becomes the bootstrap admin.
    g.POST("/register", a.Register)
    // Credential login; sets the refresh cookie and returns an access JWT.
    g.POST("/login", a.Login)
    // Rotate the refresh cookie for a fresh access JWT.
    g.POST("/refresh", a.Refresh)
    // End the session behind the cookie. Requires a valid access token.
    g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))
    // Kill every session of the authenticated user.
    g.DELETE("/sessions", a.LogoutAll, middleware.JWTAuth(jwtSecret))
    // Password reset lifecycle; both endpoints are unauthenticated.
    g.POST("/forgot-password", a.ForgotPassword)
    g.POST("/reset-password", a.ResetPassword)
}
