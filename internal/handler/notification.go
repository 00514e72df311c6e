package handler

import (
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/middleware"
    "github.com/iliyamo/sponge-stock-api/internal/service"
)

// NotificationHandler serves /notifications.  Every route sits behind
// JWTAuth, so CurrentUser is never nil here.
type NotificationHandler struct {
    Notes *service.NotificationService
    Log   *slog.Logger
}

func NewNotificationHandler(notes *service.NotificationService, log *slog.Logger) *NotificationHandler {
    return &NotificationHandler{Notes: notes, Log: log}
}

func (h *NotificationHandler) List(c echo.Context) error {
    limit := 0
    if v := c.QueryParam("limit"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n == 0 {
            return badRequest(c, "limit must be a positive integer")
        }
        limit = n
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Notes.List(ctx, middleware.CurrentUser(c).ID, limit)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    n, err := h.Notes.UnreadCount(ctx, middleware.CurrentUser(c).ID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"unread_count": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    n, err := h.Notes.MarkRead(ctx, id, middleware.CurrentUser(c).ID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    n, err := h.Notes.MarkAllRead(ctx, middleware.CurrentUser(c).ID)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// Create handles POST /notifications (admin and operator only).
func (h *NotificationHandler) Create(c echo.Context) error {
    var in service.NotificationInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    n, err := h.Notes.Create(ctx, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Notes.Delete(ctx, id, middleware.CurrentUser(c)); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
