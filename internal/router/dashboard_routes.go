package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/unfust/unfust-server/internal/config"
    "github.com/unfust/unfust-server/internal/handler"
    "github.com/unfust/unfust-server/internal/middleware"
)

// RegisterUsers registers the profile and admin user-management
// endpoints. Everything requires a valid access token; the admin
// surface additionally requires the admin claim.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
    g := e.Group("/api/users", middleware.JWTAuth(jwtSecret))

    g.GET("/me", u.Me)
    g.PATCH("/me", u.UpdateMe)
    g.POST("/me/change-password", u.ChangePassword)

    admin := g.Group("", middleware.RequireAdmin())
    admin.GET("", u.List)
    admin.PATCH("/:id", u.AdminUpdate)
}

// RegisterDashboard registers the widget-backing endpoints: habits,
// bookmarks, sticky notes and the layout document. All of them are
// per-user and require a valid access token. The habit summary and
// the bookmark list are the hottest reads on the dashboard, so they
// go through the Redis response cache; the cache key includes the
// authenticated user id, keeping responses private.
func RegisterDashboard(e *echo.Echo, h *handler.HabitHandler, b *handler.BookmarkHandler, n *handler.NoteHandler, l *handler.LayoutHandler, rdb *redis.Client, jwtSecret string) {
    auth := middleware.JWTAuth(jwtSecret)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    // ---- Habits ----
    hg := e.Group("/api/habits", auth)
    hg.GET("", h.List)
    hg.GET("/summary", h.Summary, cache)
    hg.POST("", h.Create)
    hg.GET("/:id", h.Get)
    hg.PATCH("/:id", h.Update)
    hg.DELETE("/:id", h.Delete)
    hg.POST("/:id/logs", h.Log)
    hg.GET("/:id/logs", h.History)
    hg.DELETE("/logs/:logId", h.UndoLog)

    // ---- Bookmarks ----
    bg := e.Group("/api/bookmarks", auth)
    bg.GET("", b.List, cache)
    bg.POST("", b.Create)
    bg.PATCH("/:id", b.Update)
    bg.DELETE("/:id", b.Delete)

    // ---- Sticky notes ----
    ng := e.Group("/api/notes", auth)
    ng.GET("", n.List)
    ng.POST("", n.Create)
    ng.PATCH("/:id", n.Update)
    ng.POST("/:id/front", n.BringToFront)
    ng.DELETE("/:id", n.Delete)

    // ---- Dashboard layout ----
    lg := e.Group("/api/widgets", auth)
    lg.GET("/layout", l.Get)
    lg.PUT("/layout", l.Save)
}
