package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/unfust/unfust-server/internal/middleware"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
    "github.com/unfust/unfust-server/internal/service"
)

// HabitHandler serves the habit tracker endpoints.
type HabitHandler struct {
    Habits *service.HabitService
}

func NewHabitHandler(habits *service.HabitService) *HabitHandler {
    return &HabitHandler{Habits: habits}
}

type createHabitReq struct {
    Name          string `json:"name"`
    Emoji         string `json:"emoji"`
    Color         string `json:"color"`
    Category      string `json:"category"`
    Description   string `json:"description"`
    HabitType     string `json:"habit_type"`
    FrequencyType string `json:"frequency_type"`
    TargetCount   int    `json:"target_count"`
    PeriodDays    int    `json:"period_days"`
}

type updateHabitReq struct {
    Name          *string `json:"name"`
    Emoji         *string `json:"emoji"`
    Color         *string `json:"color"`
    Category      *string `json:"category"`
    Description   *string `json:"description"`
    HabitType     *string `json:"habit_type"`
    FrequencyType *string `json:"frequency_type"`
    TargetCount   *int    `json:"target_count"`
    PeriodDays    *int    `json:"period_days"`
    SortOrder     *int    `json:"sort_order"`
}

type logHabitReq struct {
    LoggedDate string `json:"logged_date"` // ISO date, defaults to today
    Notes      string `json:"notes"`
}

// habitPayload flattens a habit and its computed stats into one
// object, which is what the dashboard widget consumes.
type habitPayload struct {
    ID            string            `json:"id"`
    Name          string            `json:"name"`
    Emoji         string            `json:"emoji"`
    Color         string            `json:"color"`
    Category      string            `json:"category"`
    Description   string            `json:"description"`
    HabitType     string            `json:"habit_type"`
    FrequencyType string            `json:"frequency_type"`
    TargetCount   int               `json:"target_count"`
    PeriodDays    int               `json:"period_days"`
    SortOrder     int               `json:"sort_order"`
    CreatedAt     time.Time         `json:"created_at"`
    Stats         *model.HabitStats `json:"stats"`
}

type habitLogPayload struct {
    ID         string    `json:"id"`
    HabitID    string    `json:"habit_id"`
    LoggedDate string    `json:"logged_date"`
    Notes      string    `json:"notes"`
    CreatedAt  time.Time `json:"created_at"`
}

func toHabitPayload(hs *service.HabitWithStats) habitPayload {
    h := hs.Habit
    return habitPayload{
        ID:            h.ID,
        Name:          h.Name,
        Emoji:         h.Emoji,
        Color:         h.Color,
        Category:      h.Category,
        Description:   h.Description,
        HabitType:     h.HabitType,
        FrequencyType: h.FrequencyType,
        TargetCount:   h.TargetCount,
        PeriodDays:    h.PeriodDays,
        SortOrder:     h.SortOrder,
        CreatedAt:     h.CreatedAt,
        Stats:         hs.Stats,
    }
}

func toHabitLogPayload(l *model.HabitLog) habitLogPayload {
    return habitLogPayload{
        ID:         l.ID,
        HabitID:    l.HabitID,
        LoggedDate: l.LoggedDate,
        Notes:      l.Notes,
        CreatedAt:  l.CreatedAt,
    }
}

// List returns the user's active habits with stats.
func (h *HabitHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    habits, err := h.Habits.List(ctx, middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list habits failed"})
    }
    out := make([]habitPayload, 0, len(habits))
    for i := range habits {
        out = append(out, toHabitPayload(&habits[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one habit with stats.
func (h *HabitHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    hs, err := h.Habits.Get(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load habit failed"})
    }
    return c.JSON(http.StatusOK, toHabitPayload(hs))
}

// Create adds a habit at the end of the user's list.
func (h *HabitHandler) Create(c echo.Context) error {
    var req createHabitReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    hs, err := h.Habits.Create(ctx, middleware.UserID(c), service.CreateHabitInput{
        Name:          req.Name,
        Emoji:         req.Emoji,
        Color:         req.Color,
        Category:      req.Category,
        Description:   req.Description,
        HabitType:     req.HabitType,
        FrequencyType: req.FrequencyType,
        TargetCount:   req.TargetCount,
        PeriodDays:    req.PeriodDays,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create habit failed"})
    }
    return c.JSON(http.StatusCreated, toHabitPayload(hs))
}

// Update patches a habit.
func (h *HabitHandler) Update(c echo.Context) error {
    var req updateHabitReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    hs, err := h.Habits.Update(ctx, c.Param("id"), middleware.UserID(c), service.UpdateHabitInput{
        Name:          req.Name,
        Emoji:         req.Emoji,
        Color:         req.Color,
        Category:      req.Category,
        Description:   req.Description,
        HabitType:     req.HabitType,
        FrequencyType: req.FrequencyType,
        TargetCount:   req.TargetCount,
        PeriodDays:    req.PeriodDays,
        SortOrder:     req.SortOrder,
    })
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update habit failed"})
    }
    return c.JSON(http.StatusOK, toHabitPayload(hs))
}

// Delete soft-deletes a habit; history is kept.
func (h *HabitHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    ok, err := h.Habits.Delete(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete habit failed"})
    }
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Log records a completion and awards XP.
func (h *HabitHandler) Log(c echo.Context) error {
    var req logHabitReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    l, err := h.Habits.LogCompletion(ctx, c.Param("id"), middleware.UserID(c), req.LoggedDate, req.Notes)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid logged_date"})
    }
    return c.JSON(http.StatusCreated, toHabitLogPayload(l))
}

// UndoLog deletes a log entry; awarded XP is kept.
func (h *HabitHandler) UndoLog(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    ok, err := h.Habits.UndoLog(ctx, c.Param("logId"), middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete log failed"})
    }
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "log not found"})
    }
    return c.NoContent(http.StatusNoContent)
}

// History lists a habit's logs between ?start and ?end (ISO dates,
// inclusive; defaults to the last 30 days).
func (h *HabitHandler) History(c echo.Context) error {
    end := c.QueryParam("end")
    start := c.QueryParam("start")
    now := time.Now().UTC()
    if end == "" {
        end = now.Format("2006-01-02")
    }
    if start == "" {
        start = now.AddDate(0, 0, -29).Format("2006-01-02")
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    logs, err := h.Habits.History(ctx, c.Param("id"), middleware.UserID(c), start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load history failed"})
    }
    out := make([]habitLogPayload, 0, len(logs))
    for _, l := range logs {
        out = append(out, toHabitLogPayload(l))
    }
    return c.JSON(http.StatusOK, out)
}

// Summary returns the aggregate the dashboard widget renders.
func (h *HabitHandler) Summary(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    sum, err := h.Habits.Summary(ctx, middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load summary failed"})
    }
    return c.JSON(http.StatusOK, sum)
}
