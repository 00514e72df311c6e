package handler

import (
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/service"
)

type DashboardHandler struct {
    Dashboard *service.DashboardService
    Log       *slog.Logger
}

func NewDashboardHandler(d *service.DashboardService, log *slog.Logger) *DashboardHandler {
    return &DashboardHandler{Dashboard: d, Log: log}
}

func (h *DashboardHandler) Stats(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    st, err := h.Dashboard.Stats(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, st)
}

func (h *DashboardHandler) WeeklyTrend(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    days, err := h.Dashboard.WeeklyTrend(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, days)
}

// TopMovers handles GET /dashboard/top-movers?limit=N (default 5).
func (h *DashboardHandler) TopMovers(c echo.Context) error {
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
    movers, err := h.Dashboard.TopMovers(ctx, limit)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, movers)
}
