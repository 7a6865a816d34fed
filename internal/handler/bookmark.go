package handler

import (
    "errors"
    "net/http"
    "net/url"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/unfust/unfust-server/internal/middleware"
    "github.com/unfust/unfust-server/internal/model"
    "github.com/unfust/unfust-server/internal/repository"
)

// BookmarkHandler serves the bookmarks widget endpoints.
type BookmarkHandler struct {
    Bookmarks *repository.BookmarkRepo
}

func NewBookmarkHandler(b *repository.BookmarkRepo) *BookmarkHandler {
    return &BookmarkHandler{Bookmarks: b}
}

type bookmarkReq struct {
    Title    *string `json:"title"`
    URL      *string `json:"url"`
    Category *string `json:"category"`
    Position *int    `json:"position"`
}

type bookmarkPayload struct {
    ID        string    `json:"id"`
    Title     string    `json:"title"`
    URL       string    `json:"url"`
    Category  string    `json:"category"`
    Position  int       `json:"position"`
    CreatedAt time.Time `json:"created_at"`
}

func toBookmarkPayload(b *model.Bookmark) bookmarkPayload {
    return bookmarkPayload{
        ID:        b.ID,
        Title:     b.Title,
        URL:       b.URL,
        Category:  b.Category,
        Position:  b.Position,
        CreatedAt: b.CreatedAt,
    }
}

// validBookmarkURL accepts absolute http(s) URLs only.
func validBookmarkURL(raw string) bool {
    u, err := url.Parse(raw)
    if err != nil {
        return false
    }
    return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// List returns the user's bookmarks grouped by category order.
func (h *BookmarkHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    items, err := h.Bookmarks.ListByUser(ctx, middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookmarks failed"})
    }
    out := make([]bookmarkPayload, 0, len(items))
    for _, b := range items {
        out = append(out, toBookmarkPayload(b))
    }
    return c.JSON(http.StatusOK, out)
}

// Create adds a bookmark.
func (h *BookmarkHandler) Create(c echo.Context) error {
    var req bookmarkReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Title == nil || *req.Title == "" || req.URL == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and url required"})
    }
    if !validBookmarkURL(*req.URL) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "url must be absolute http(s)"})
    }

    b := &model.Bookmark{
        ID:        uuid.NewString(),
        UserID:    middleware.UserID(c),
        Title:     *req.Title,
        URL:       *req.URL,
        CreatedAt: time.Now().UTC(),
    }
    if req.Category != nil {
        b.Category = *req.Category
    }
    if req.Position != nil {
        b.Position = *req.Position
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    if err := h.Bookmarks.Create(ctx, b); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bookmark failed"})
    }
    return c.JSON(http.StatusCreated, toBookmarkPayload(b))
}

// Update patches a bookmark.
func (h *BookmarkHandler) Update(c echo.Context) error {
    var req bookmarkReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    b, err := h.Bookmarks.Get(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "bookmark not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookmark failed"})
    }
    if req.Title != nil {
        b.Title = *req.Title
    }
    if req.URL != nil {
        if !validBookmarkURL(*req.URL) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "url must be absolute http(s)"})
        }
        b.URL = *req.URL
    }
    if req.Category != nil {
        b.Category = *req.Category
    }
    if req.Position != nil {
        b.Position = *req.Position
    }
    if err := h.Bookmarks.Update(ctx, b); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update bookmark failed"})
    }
    return c.JSON(http.StatusOK, toBookmarkPayload(b))
}

// Delete removes a bookmark.
func (h *BookmarkHandler) Delete(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    ok, err := h.Bookmarks.Delete(ctx, c.Param("id"), middleware.UserID(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete bookmark failed"})
    }
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "bookmark not found"})
    }
    return c.NoContent(http.StatusNoContent)
}
