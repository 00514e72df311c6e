// Package server assembles repositories, services, handlers and middleware
// into an echo instance.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sponge-stock-api/internal/config"
	"github.com/iliyamo/sponge-stock-api/internal/handler"
	"github.com/iliyamo/sponge-stock-api/internal/middleware"
	"github.com/iliyamo/sponge-stock-api/internal/notify"
	"github.com/iliyamo/sponge-stock-api/internal/repository"
	"github.com/iliyamo/sponge-stock-api/internal/router"
	"github.com/iliyamo/sponge-stock-api/internal/service"
	"github.com/iliyamo/sponge-stock-api/internal/utils"
)

// Deps are the process-wide collaborators built by main.  Redis and Events
// may be nil.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig

	DB     *sqlx.DB
	Redis  *redis.Client
	Log    *slog.Logger
	Sink   notify.Sink
	Events service.MovementPublisher
}

// New wires every route.  It fails only on an unusable JWT configuration.
func New(d Deps) (*echo.Echo, error) {
	signer, err := utils.NewSigner(d.Config.JWTSecret, d.Config.JWTAlgorithm, d.Config.JWTIssuer)
	if err != nil {
		return nil, err
	}
	sink := d.Sink
	if sink == nil {
		sink = notify.LogSink{Log: d.Log}
	}

	sponges := repository.NewSpongeRepo(d.DB)
	stocks := repository.NewStockRepo(d.DB)
	reports := repository.NewReportRepo(d.DB)
	notes := repository.NewNotificationRepo(d.DB)
	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)

	spongeSvc := service.NewSpongeService(sponges, stocks, d.Log)
	stockSvc := service.NewStockService(sponges, stocks, reports, d.Events, d.Log)
	reportSvc := service.NewReportService(reports, notes, sink, d.Config.AlertTo, d.Log)
	dashSvc := service.NewDashboardService(sponges, reports)
	noteSvc := service.NewNotificationService(notes, users)
	authSvc := service.NewAuthService(users, tokens, signer, service.AuthConfig{
		AccessTTL:  time.Duration(d.Config.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(d.Config.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: d.Config.BcryptCost,
	}, d.Log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	router.RegisterRoutes(e, d.DB)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, d.Log), authSvc,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	router.RegisterInventory(e,
		handler.NewSpongeHandler(spongeSvc, stockSvc, d.Log),
		handler.NewStockHandler(stockSvc, d.Log),
		authSvc)
	router.RegisterReports(e,
		handler.NewReportHandler(reportSvc, d.Log),
		handler.NewDashboardHandler(dashSvc, d.Log),
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	router.RegisterNotifications(e, handler.NewNotificationHandler(noteSvc, d.Log), authSvc)
	return e, nil
}

// errorHandler renders echo's own errors (404 route, 405, bind failures
// that escape handlers, panics) in the {"error": ...} shape.
func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.Error("unhandled error", "path", c.Path(), "err", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"error": msg})
	}
}
