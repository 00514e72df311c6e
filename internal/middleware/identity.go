package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/sponge-stock-api/internal/model"
)

// userKey is the echo context key holding the authenticated *model.User.
const userKey = "user"

// CurrentUser returns the user set by JWTAuth or OptionalAuth, or nil for
// anonymous requests.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(userKey).(*model.User)
    return u
}

func setUser(c echo.Context, u *model.User) { c.Set(userKey, u) }

// identity names the caller for rate-limit keys: the user id when
// authenticated, "anon" otherwise.
func identity(c echo.Context) string {
    if u := CurrentUser(c); u != nil {
        return strconv.FormatUint(u.ID, 10)
    }
    return "anon"
}
