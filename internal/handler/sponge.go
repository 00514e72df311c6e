package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/service"
)

// SpongeHandler serves the product registry.
type SpongeHandler struct {
    Sponges *service.SpongeService
    Stocks  *service.StockService
    Log     *slog.Logger
}

func NewSpongeHandler(sponges *service.SpongeService, stocks *service.StockService, log *slog.Logger) *SpongeHandler {
    return &SpongeHandler{Sponges: sponges, Stocks: stocks, Log: log}
}

// List handles GET /sponges.
func (h *SpongeHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Sponges.List(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /sponges/:id.
func (h *SpongeHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    sp, err := h.Sponges.Get(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// GetByName handles GET /sponges/by_name/:name.  The match is exact.
func (h *SpongeHandler) GetByName(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    sp, err := h.Sponges.GetByName(ctx, c.Param("name"))
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// Create handles POST /sponges.
func (h *SpongeHandler) Create(c echo.Context) error {
    var in service.SpongeInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    sp, err := h.Sponges.Create(ctx, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, sp)
}

// Update handles PUT /sponges/:id.  Omitted fields keep their values.
func (h *SpongeHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    var p service.SpongePatch
    if err := c.Bind(&p); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    sp, err := h.Sponges.Update(ctx, id, p)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sp)
}

// Delete handles DELETE /sponges/:id.  The sponge's ledger goes with it.
func (h *SpongeHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if _, err := h.Sponges.Delete(ctx, id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// History handles GET /sponges/:id/stocks, oldest entry first.
func (h *SpongeHandler) History(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    entries, err := h.Stocks.History(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, entries)
}
