package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/unfust/unfust-server/internal/middleware"
    "github.com/unfust/unfust-server/internal/repository"
    "github.com/unfust/unfust-server/internal/service"
)

// UserHandler serves the profile endpoints and the admin user
// management surface.
type UserHandler struct {
    Users *repository.UserRepo
    Auth  *service.AuthService
}

func NewUserHandler(users *repository.UserRepo, auth *service.AuthService) *UserHandler {
    return &UserHandler{Users: users, Auth: auth}
}

type updateMeReq struct {
    FirstName *string `json:"first_name"`
    LastName  *string `json:"last_name"`
    Notes     *string `json:"notes"`
    Location  *string `json:"location"`
}

type changePasswordReq struct {
    CurrentPassword string `json:"current_password"`
    NewPassword     string `json:"new_password"`
}

type adminUpdateReq struct {
    IsActive *bool   `json:"is_active"`
    IsAdmin  *bool   `json:"is_admin"`
    Notes    *string `json:"notes"`
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserPayload(u))
}

// UpdateMe patches the writable profile fields. Absent fields are
// left untouched; email and the admin flags are not writable here.
func (h *UserHandler) UpdateMe(c echo.Context) error {
    var req updateMeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, middleware.UserID(c))
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    if req.FirstName != nil {
        u.FirstName = *req.FirstName
    }
    if req.LastName != nil {
        u.LastName = *req.LastName
    }
    if req.Notes != nil {
        u.Notes = *req.Notes
    }
    if req.Location != nil {
        u.Location = *req.Location
    }
    if err := h.Users.Update(ctx, u); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
    }
    return c.JSON(http.StatusOK, toUserPayload(u))
}

// ChangePassword verifies the current password before storing the
// new one. A successful change kills every session, including the
// one making the request; the client must log in again.
func (h *UserHandler) ChangePassword(c echo.Context) error {
    var req changePasswordReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.NewPassword) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    err := h.Auth.ChangePassword(ctx, middleware.UserID(c), req.CurrentPassword, req.NewPassword)
    if err != nil {
        if errors.Is(err, service.ErrInvalidCredentials) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// List returns a page of users together with the total count.
// Admin only.
func (h *UserHandler) List(c echo.Context) error {
    skip, _ := strconv.Atoi(c.QueryParam("skip"))
    limit, err := strconv.Atoi(c.QueryParam("limit"))
    if err != nil || limit <= 0 || limit > 100 {
        limit = 50
    }
    if skip < 0 {
        skip = 0
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    users, err := h.Users.List(ctx, skip, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
    }
    total, err := h.Users.Count(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count users failed"})
    }

    out := make([]userPayload, 0, len(users))
    for _, u := range users {
        out = append(out, toUserPayload(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out, "total": total})
}

// AdminUpdate toggles the activation and admin flags of a user.
// Deactivating an account also revokes its refresh tokens so the
// lockout takes effect as soon as the access token expires.
func (h *UserHandler) AdminUpdate(c echo.Context) error {
    id := c.Param("id")
    var req adminUpdateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    deactivated := false
    if req.IsActive != nil {
        if u.ID == middleware.UserID(c) && !*req.IsActive {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
        }
        deactivated = u.IsActive && !*req.IsActive
        u.IsActive = *req.IsActive
    }
    if req.IsAdmin != nil {
        u.IsAdmin = *req.IsAdmin
    }
    if req.Notes != nil {
        u.Notes = *req.Notes
    }
    if err := h.Users.Update(ctx, u); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
    }
    if deactivated {
        if err := h.Auth.RevokeAllRefreshTokens(ctx, u.ID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
        }
    }
    return c.JSON(http.StatusOK, toUserPayload(u))
}
