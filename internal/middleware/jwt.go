package middleware // reusable HTTP middleware

import (
    "context"  // Authorizer takes the request context
    "errors"   // errors.Is separates auth failures from store failures
    "net/http" // status codes
    "strings"  // header prefix handling

    "github.com/labstack/echo/v4" // echo middleware signature

    "github.com/iliyamo/sponge-stock-api/internal/model"   // authenticated user type
    "github.com/iliyamo/sponge-stock-api/internal/service" // ErrUnauthorized sentinel
)

// Authorizer resolves a raw access token to an active user.
// *service.AuthService implements it.
type Authorizer interface {
    Authorize(ctx context.Context, raw string) (*model.User, error)
}

// JWTAuth rejects requests without a valid Bearer access token and stores
// the resolved user in the context for CurrentUser.
func JWTAuth(a Authorizer) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            return authenticate(c, a, raw, next)
        }
    }
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that is present and invalid.
func OptionalAuth(a Authorizer) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c)
            if !ok {
                return next(c)
            }
            return authenticate(c, a, raw, next)
        }
    }
}

func authenticate(c echo.Context, a Authorizer, raw string, next echo.HandlerFunc) error {
    u, err := a.Authorize(c.Request().Context(), raw)
    if err != nil {
        if errors.Is(err, service.ErrUnauthorized) {
            c.Response().Header().Set("WWW-Authenticate", "Bearer")
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
        }
        return err
    }
    setUser(c, u)
    return next(c)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(c echo.Context) (string, bool) {
    h := c.Request().Header.Get(echo.HeaderAuthorization)
    if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(h[7:])
    return raw, raw != ""
}
