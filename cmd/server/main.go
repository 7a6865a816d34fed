package main // Entry point package

import (
    "log"  // Logging library
    "time" // refresh token lifetime arithmetic

    "github.com/joho/godotenv"    // loads .env files in development
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/unfust/unfust-server/internal/config"     // Internal config loader
    "github.com/unfust/unfust-server/internal/database"   // MySQL pool
    "github.com/unfust/unfust-server/internal/handler"    // HTTP handlers
    "github.com/unfust/unfust-server/internal/queue"      // mail consumer
    "github.com/unfust/unfust-server/internal/repository" // DB repositories
    "github.com/unfust/unfust-server/internal/router"     // Internal router setup
    "github.com/unfust/unfust-server/internal/service"    // business logic
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments set the environment directly

    cfg := config.Load() // Load environment config

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades to no-op

    // Repositories over the shared pool.
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    resets := repository.NewResetRepo(db)
    habits := repository.NewHabitRepo(db)
    bookmarks := repository.NewBookmarkRepo(db)
    notes := repository.NewNoteRepo(db)
    layouts := repository.NewLayoutRepo(db)

    // Services.
    authSvc := service.NewAuthService(users, tokens, resets, cfg.BcryptCost,
        time.Duration(cfg.RefreshTTLDays)*24*time.Hour)
    habitSvc := service.NewHabitService(habits)

    // Handlers.
    authH := handler.NewAuthHandler(cfg, authSvc)
    userH := handler.NewUserHandler(users, authSvc)
    habitH := handler.NewHabitHandler(habitSvc)
    bookmarkH := handler.NewBookmarkHandler(bookmarks)
    noteH := handler.NewNoteHandler(notes)
    layoutH := handler.NewLayoutHandler(layouts)

    // The mail consumer runs for the lifetime of the process and
    // reconnects on its own; a broker outage never blocks startup.
    go func() {
        if err := queue.StartMailConsumer(cfg); err != nil {
            log.Printf("mail-consumer: %v", err)
        }
    }()

    e := echo.New() // Create Echo instance
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, rdb, cfg.JWTSecret)
    router.RegisterUsers(e, userH, cfg.JWTSecret)
    router.RegisterDashboard(e, habitH, bookmarkH, noteH, layoutH, rdb, cfg.JWTSecret)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err)
    }
}
