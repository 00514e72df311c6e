package handler // HTTP handlers

import (
    "context"  // ping deadline
    "net/http" // status codes
    "time"     // ping timeout

    "github.com/labstack/echo/v4" // echo context
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// Health answers load balancer checks with a plain "ok".  When a database
// is attached it must answer a ping within two seconds, otherwise the
// check reports 503.
func Health(db Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        if db != nil {
            ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
            defer cancel()
            if err := db.PingContext(ctx); err != nil {
                return c.String(http.StatusServiceUnavailable, "database unavailable")
            }
        }
        return c.String(http.StatusOK, "ok")
    }
}
