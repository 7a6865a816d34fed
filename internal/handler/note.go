package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/unfust/unfust-server/internal/middleware"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
)

// NoteHandler serves the sticky notes endpoints.
type NoteHandler struct {
    Notes *repository.NoteRepo
}

func NewNoteHandler(n *repository.NoteRepo) *NoteHandler {
    return &NoteHandler{Notes: n}
}

type noteReq struct {
    Title   *string `json:"title"`
    Content *string `json:"content"`
    Color   *string `json:"color"`
    X       *int    `json:"x"`
    Y       *int    `json:"y"`
    W       *int    `json:"w"`
    H       *int    `json:"h"`
}

type notePayload struct {
    ID        string    `json:"id"`
    Title     string    `json:"title"`
    Content   string    `json:"content"`
    Color     string    `json:"color"`
    X         int       `json:"x"`
    Y         int       `json:"y"`
    W         int       `json:"w"`
    H         int       `json:"h"`
    ZIndex    int       `json:"z_index"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toNotePayload(n *model.Note) notePayload {
    return notePayload{
        ID:        n.ID,
        Title:     n.Title,
        Content:   n.Content,
        Color:     n.Color,
        X:         n.X,
        Y:         n.Y,
        W:         n.W,
        H:         n.H,
        ZIndex:    n.ZIndex,
        CreatedAt: n.CreatedAt,
        UpdatedAt: n.UpdatedAt,
    }
}

// List returns the user's notes, frontmost first.
func (h *NoteHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    notes, err := h.Notes.ListByUser(ctx, middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notes failed"})
    }
    out := make([]notePayload, 0, len(notes))
    for _, n := range notes {
        out = append(out, toNotePayload(n))
    }
    return c.JSON(http.StatusOK, out)
}

// Create adds a note on top of the stack.
func (h *NoteHandler) Create(c echo.Context) error {
    var req noteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    userID := middleware.UserID(c)
    maxZ, err := h.Notes.MaxZIndex(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create note failed"})
    }

    now := time.Now().UTC()
    n := &model.Note{
        ID:        uuid.NewString(),
        UserID:    userID,
        Color:     "#ffec99",
        W:         2,
        H:         2,
        ZIndex:    maxZ + 1,
        CreatedAt: now,
        UpdatedAt: now,
    }
    if req.Title != nil {
        n.Title = *req.Title
    }
    if req.Content != nil {
        n.Content = *req.Content
    }
    if req.Color != nil && *req.Color != "" {
        n.Color = *req.Color
    }
    if req.X != nil {
        n.X = *req.X
    }
    if req.Y != nil {
        n.Y = *req.Y
    }
    if req.W != nil && *req.W > 0 {
        n.W = *req.W
    }
    if req.H != nil && *req.H > 0 {
        n.H = *req.H
    }

    if err := h.Notes.Create(ctx, n); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create note failed"})
    }
    return c.JSON(http.StatusCreated, toNotePayload(n))
}

// Update patches a note's content or geometry.
func (h *NoteHandler) Update(c echo.Context) error {
    var req noteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    n, err := h.Notes.Get(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load note failed"})
    }
    if req.Title != nil {
        n.Title = *req.Title
    }
    if req.Content != nil {
        n.Content = *req.Content
    }
    if req.Color != nil && *req.Color != "" {
        n.Color = *req.Color
    }
    if req.X != nil {
        n.X = *req.X
    }
    if req.Y != nil {
        n.Y = *req.Y
    }
    if req.W != nil && *req.W > 0 {
        n.W = *req.W
    }
    if req.H != nil && *req.H > 0 {
        n.H = *req.H
    }
    n.UpdatedAt = time.Now().UTC()

    if err := h.Notes.Update(ctx, n); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update note failed"})
    }
    return c.JSON(http.StatusOK, toNotePayload(n))
}

// BringToFront bumps a note's z-index past the current maximum.
func (h *NoteHandler) BringToFront(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    userID := middleware.UserID(c)
    n, err := h.Notes.Get(ctx, c.Param("id"), userID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load note failed"})
    }
    maxZ, err := h.Notes.MaxZIndex(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update note failed"})
    }
    n.ZIndex = maxZ + 1
    n.UpdatedAt = time.Now().UTC()
    if err := h.Notes.Update(ctx, n); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update note failed"})
    }
    return c.JSON(http.StatusOK, toNotePayload(n))
}

// Delete removes a note.
func (h *NoteHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    ok, err := h.Notes.Delete(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete note failed"})
    }
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
    }
    return c.NoContent(http.StatusNoContent)
}
