package handler

import (
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/balance"
    "github.com/iliyamo/sponge-stock-api/internal/middleware"
    "github.com/iliyamo/sponge-stock-api/internal/service"
)

// StockHandler serves the ledger and balance endpoints.
type StockHandler struct {
    Stocks *service.StockService
    Log    *slog.Logger
}

func NewStockHandler(stocks *service.StockService, log *slog.Logger) *StockHandler {
    return &StockHandler{Stocks: stocks, Log: log}
}

// Create handles POST /stocks.  When the request is authenticated the
// caller is recorded as the entry's creator.
func (h *StockHandler) Create(c echo.Context) error {
    var in service.MovementInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    if u := middleware.CurrentUser(c); u != nil {
        id := u.ID
        in.CreatedBy = &id
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    entry, err := h.Stocks.RecordMovement(ctx, in)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, entry)
}

func (h *StockHandler) List(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    entries, err := h.Stocks.List(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, entries)
}

func (h *StockHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    e, err := h.Stocks.Get(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, e)
}

// Delete handles DELETE /stocks/:id.
func (h *StockHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if _, err := h.Stocks.DeleteMovement(ctx, id); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Total handles GET /stocks/:id/total where :id is a sponge id.
func (h *StockHandler) Total(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    b, err := h.Stocks.ComputeBalance(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"sponge_id": id, "total": balance.Float(b)})
}

// Status handles GET /stocks/:id/status where :id is a sponge id.
func (h *StockHandler) Status(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    st, err := h.Stocks.Status(ctx, id)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, st)
}

// ByDate handles GET /stocks/by_date?start_date=...&end_date=...  The
// shorter start and end names are accepted too.
func (h *StockHandler) ByDate(c echo.Context) error {
    start := firstQuery(c, "start_date", "start")
    end := firstQuery(c, "end_date", "end")
    ctx, cancel := reqCtx(c)
    defer cancel()
    entries, err := h.Stocks.ByDateRange(ctx, start, end)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, entries)
}

func (h *StockHandler) Summary(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    items, err := h.Stocks.Summary(ctx)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, items)
}

func firstQuery(c echo.Context, names ...string) string {
    for _, n := range names {
        if v := c.QueryParam(n); v != "" {
            return v
        }
    }
    return ""
}
