package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/unfust/unfust-server/internal/middleware"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
)

// LayoutHandler persists the dashboard widget arrangement. The
// layout is an opaque JSON array: the server validates that it is
// well-formed JSON and stores it as-is.
type LayoutHandler struct {
    Layouts *repository.LayoutRepo
}

func NewLayoutHandler(l *repository.LayoutRepo) *LayoutHandler {
    return &LayoutHandler{Layouts: l}
}

type layoutReq struct {
    Widgets json.RawMessage `json:"widgets"`
}

type layoutPayload struct {
    Widgets   json.RawMessage `json:"widgets"`
    UpdatedAt time.Time       `json:"updated_at"`
}

// Get returns the user's saved layout, or an empty widget list when
// nothing was ever saved so first-time clients need no special case.
func (h *LayoutHandler) Get(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    l, err := h.Layouts.GetByUser(ctx, middleware.UserID(c))
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusOK, layoutPayload{Widgets: json.RawMessage("[]")})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load layout failed"})
    }
    return c.JSON(http.StatusOK, layoutPayload{Widgets: l.Widgets, UpdatedAt: l.UpdatedAt})
}

// Save upserts the layout. The widgets value must be a JSON array.
func (h *LayoutHandler) Save(c echo.Context) error {
    var req layoutReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var widgets []json.RawMessage
    if err := json.Unmarshal(req.Widgets, &widgets); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "widgets must be a JSON array"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    now := time.Now().UTC()
    l := &model.DashboardLayout{
        ID:        uuid.NewString(),
        UserID:    middleware.UserID(c),
        Widgets:   req.Widgets,
        CreatedAt: now,
        UpdatedAt: now,
    }
    if err := h.Layouts.Save(ctx, l); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save layout failed"})
    }
    return c.JSON(http.StatusOK, layoutPayload{Widgets: l.Widgets, UpdatedAt: l.UpdatedAt})
}
