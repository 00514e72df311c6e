package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/sponge-stock-api/internal/handler"    // HTTP handlers
	"github.com/iliyamo/sponge-stock-api/internal/middleware" // auth, role, rate limit and cache middleware
	"github.com/iliyamo/sponge-stock-api/internal/model"      // roles
)

// RegisterRoutes registers routes that need no collaborators beyond the
// database handle used by the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the /users endpoints.  Credential endpoints are
// wrapped by limit; session endpoints require a valid access token and the
// activation switches additionally require the admin role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authz middleware.Authorizer, limit echo.MiddlewareFunc) {
	g := e.Group("/users")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)

	auth := g.Group("", middleware.JWTAuth(authz))
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)

	admin := g.Group("", middleware.JWTAuth(authz), middleware.RequireRole(model.RoleAdmin))
	admin.PUT("/:id/activate", a.Activate)
	admin.PUT("/:id/deactivate", a.Deactivate)
}

// RegisterInventory registers the product registry and ledger endpoints.
// Movements accept an optional bearer token so the acting user can be
// recorded; removing a ledger entry is admin only.
func RegisterInventory(e *echo.Echo, s *handler.SpongeHandler, st *handler.StockHandler, authz middleware.Authorizer) {
	sp := e.Group("/sponges")
	sp.GET("", s.List)
	sp.POST("", s.Create)
	sp.GET("/by_name/:name", s.GetByName)
	sp.GET("/:id", s.Get)
	sp.PUT("/:id", s.Update)
	sp.DELETE("/:id", s.Delete)
	sp.GET("/:id/stocks", s.History)

	g := e.Group("/stocks")
	g.GET("", st.List)
	g.POST("", st.Create, middleware.OptionalAuth(authz))
	g.GET("/summary", st.Summary)
	g.GET("/by_date", st.ByDate)
	g.GET("/:id", st.Get)
	g.DELETE("/:id", st.Delete, middleware.JWTAuth(authz), middleware.RequireRole(model.RoleAdmin))
	g.GET("/:id/total", st.Total)
	g.GET("/:id/status", st.Status)
}

// RegisterReports registers reports and the dashboard.  cache wraps the
// windowed aggregates only: the critical report records notifications on
// every call and /dashboard/stats carries current balances.
func RegisterReports(e *echo.Echo, r *handler.ReportHandler, d *handler.DashboardHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/reports")
	g.GET("/weekly", r.Weekly, cache)
	g.GET("/monthly", r.Monthly, cache)
	g.GET("/critical", r.Critical)

	dg := e.Group("/dashboard")
	dg.GET("/stats", d.Stats)
	dg.GET("/weekly-trend", d.WeeklyTrend, cache)
	dg.GET("/top-movers", d.TopMovers, cache)
}

// RegisterNotifications registers /notifications; all routes require a
// valid access token.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, authz middleware.Authorizer) {
	g := e.Group("/notifications", middleware.JWTAuth(authz))
	g.GET("", n.List)
	g.GET("/unread-count", n.UnreadCount)
	g.PUT("/read-all", n.MarkAllRead)
	g.PUT("/:id/read", n.MarkRead)
	g.POST("", n.Create, middleware.RequireRole(model.RoleAdmin, model.RoleOperator))
	g.DELETE("/:id", n.Delete)
}
