package main // Entry point package

import (
	"context"   // shutdown and consumer lifetimes
	"errors"    // http.ErrServerClosed check
	"log"       // fatal startup errors before the logger exists
	"net/http"  // ErrServerClosed
	"os"        // exit code
	"os/signal" // SIGINT/SIGTERM handling
	"syscall"   // SIGTERM
	"time"      // shutdown timeout

	"github.com/joho/godotenv" // optional .env file

	"github.com/iliyamo/sponge-stock-api/internal/config"   // environment configuration
	"github.com/iliyamo/sponge-stock-api/internal/database" // MySQL connection and schema
	"github.com/iliyamo/sponge-stock-api/internal/notify"   // notification sinks
	"github.com/iliyamo/sponge-stock-api/internal/obs"      // structured logger
	"github.com/iliyamo/sponge-stock-api/internal/queue"    // AMQP publisher and consumers
	"github.com/iliyamo/sponge-stock-api/internal/server"   // echo assembly
	"github.com/iliyamo/sponge-stock-api/internal/service"  // MovementPublisher
)

// movementLogDir receives stock.log from the movement consumer.
const movementLogDir = "logs"

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	logger := obs.New(cfg.LogLevel)

	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db, database.MySQLSchema); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}
	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger) // nil disables rate limit and cache
	if rdb != nil {
		defer rdb.Close()
	}

	smtpSink := notify.NewSMTPSink(notify.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.MailFrom,
	})

	var (
		sink   notify.Sink = notify.LogSink{Log: logger}
		events service.MovementPublisher
	)
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, logger)
		events = pub
		// consumers reconnect on their own until ctx ends
		go func() {
			if err := queue.StartMovementConsumer(ctx, cfg.RabbitMQURL, movementLogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("movement consumer stopped", "err", err)
			}
		}()
		go func() {
			if err := queue.StartAlertConsumer(ctx, cfg.RabbitMQURL, smtpSink, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("alert consumer stopped", "err", err)
			}
		}()
		if cfg.NotifySink == "queue" {
			// callers see success once queued; SMTP errors surface only in the alert consumer log
			sink = pub
		}
	}
	if cfg.NotifySink == "smtp" {
		sink = smtpSink
	}

	e, err := server.New(server.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		DB:        db,
		Redis:     rdb,
		Log:       logger,
		Sink:      sink,
		Events:    events,
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "notify_sink", cfg.NotifySink)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stopped")
}
