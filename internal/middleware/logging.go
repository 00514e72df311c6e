package middleware

import (
    "log/slog"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestID echoes an incoming X-Request-Id or generates a UUID.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: uuid.NewString,
    })
}

// RequestLogger writes one http_request line per request.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogRemoteIP:  true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            attrs := []any{
                "method", v.Method,
                "uri", v.URI,
                "status", v.Status,
                "latency_ms", float64(v.Latency.Microseconds()) / 1000.0,
                "request_id", v.RequestID,
                "remote_ip", v.RemoteIP,
            }
            if u := CurrentUser(c); u != nil {
                attrs = append(attrs, "user_id", u.ID)
            }
            if v.Error != nil {
                logger.Error("http_request", append(attrs, "err", v.Error.Error())...)
                return nil
            }
            logger.Info("http_request", attrs...)
            return nil
        },
    })
}
