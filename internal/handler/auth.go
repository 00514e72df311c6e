package handler

import (
    "errors"   // errors.Is/As for service sentinels
    "log/slog" // structured logging
    "net/http" // HTTP status codes
    "strings"  // input trimming

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/sponge-stock-api/internal/middleware" // CurrentUser
    "github.com/iliyamo/sponge-stock-api/internal/service"    // auth service and its errors
)

// AuthHandler bundles dependencies for the /users endpoints.
type AuthHandler struct {
    Auth *service.AuthService
    Log  *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, log *slog.Logger) *AuthHandler {
    return &AuthHandler{Auth: auth, Log: log}
}

// ----- DTOs -----

// loginReq binds from JSON or an OAuth2-style password form.
type loginReq struct {
    Username string `json:"username" form:"username"`
    Password string `json:"password" form:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Register handles POST /users/register.  Validation failures and
// duplicate usernames or emails are both 400.
func (h *AuthHandler) Register(c echo.Context) error {
    var in service.RegisterInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid request body")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    u, err := h.Auth.Register(ctx, in)
    if err != nil {
        var ve *service.ValidationError
        if errors.As(err, &ve) || errors.Is(err, service.ErrConflict) {
            return badRequest(c, err.Error())
        }
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, u)
}

// Login handles POST /users/login and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if strings.TrimSpace(req.Username) == "" || req.Password == "" {
        return badRequest(c, "username and password are required")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    pair, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
    if err != nil {
        if errors.Is(err, service.ErrUnauthorized) {
            c.Response().Header().Set("WWW-Authenticate", "Bearer")
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /users/refresh.  The presented refresh token is
// spent whether or not the caller keeps the new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid request body")
    }
    if strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token is required")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()

    pair, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
    if err != nil {
        if errors.Is(err, service.ErrUnauthorized) {
            h.Log.Debug("refresh rejected", "reason", err.Error())
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
        }
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, pair)
}

// Logout handles POST /users/logout and revokes every refresh token of the
// caller.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Auth.Logout(ctx, middleware.CurrentUser(c).ID); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me handles GET /users/me.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// Activate handles PUT /users/:id/activate (admin).
func (h *AuthHandler) Activate(c echo.Context) error { return h.setActive(c, true) }

// Deactivate handles PUT /users/:id/deactivate (admin).  The user's refresh
// tokens are revoked and access tokens stop working immediately.
func (h *AuthHandler) Deactivate(c echo.Context) error { return h.setActive(c, false) }

func (h *AuthHandler) setActive(c echo.Context, active bool) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Auth.SetActive(ctx, id, active)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, u)
}
