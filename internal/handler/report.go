package handler

import (
    "errors"
    "log/slog"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/service"
)

type ReportHandler struct {
    Reports *service.ReportService
    Log     *slog.Logger
}

func NewReportHandler(reports *service.ReportService, log *slog.Logger) *ReportHandler {
    return &ReportHandler{Reports: reports, Log: log}
}

// Weekly handles GET /reports/weekly.
func (h *ReportHandler) Weekly(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    w, err := h.Reports.Weekly(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if w == nil {
        return c.JSON(http.StatusOK, echo.Map{"message": "no data for the last 7 days"})
    }
    return c.JSON(http.StatusOK, w)
}

// Monthly handles GET /reports/monthly.
func (h *ReportHandler) Monthly(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    m, err := h.Reports.Monthly(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if m == nil {
        return c.JSON(http.StatusOK, echo.Map{"message": "no data for this month"})
    }
    return c.JSON(http.StatusOK, m)
}

// Critical handles GET /reports/critical?notify=true|false.  A failed
// delivery is a 500 that still carries the items.
func (h *ReportHandler) Critical(c echo.Context) error {
    send := false
    if v := c.QueryParam("notify"); v != "" {
        b, err := strconv.ParseBool(v)
        if err != nil {
            return badRequest(c, "notify must be true or false")
        }
        send = b
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Reports.Critical(ctx, send)
    if errors.Is(err, service.ErrNotificationDelivery) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "notification delivery failed", "items": items})
    }
    if err != nil {
        return respondError(c, h.Log, err)
    }
    if len(items) == 0 {
        return c.JSON(http.StatusOK, echo.Map{"message": "no critical items"})
    }
    return c.JSON(http.StatusOK, items)
}
