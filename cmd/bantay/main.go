package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lborres/bantay"
	fiberadapter "github.com/lborres/bantay/adapters/fiber"
	pgxadapter "github.com/lborres/bantay/adapters/pgx"
	sqliteadapter "github.com/lborres/bantay/adapters/sqlite"
	"github.com/lborres/bantay/pkg/config"
	applog "github.com/lborres/bantay/pkg/logger"
	"github.com/lborres/bantay/pkg/metrics"
	"github.com/lborres/bantay/provider/google"
)

const shutdownTimeout = 10 * time.Second

func logFormat() string {
	format := []string{
		// Timestamp & Request ID
		"${time}|${respHeader:X-Request-ID}",

		// Response metadata
		"${status}|${latency}",

		// Client info
		"${ip}",

		// Request details, query carries the action
		"${method}|${path}|${queryParams}",

		"${error}",
	}
	return strings.Join(format, "|") + "\n"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		zl.Warn("some auth actions will fail until configuration is fixed", zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	app := fiber.New(fiber.Config{AppName: "bantay"})
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format:     logFormat(),
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
	}))

	recorder := metrics.New()
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))
	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	b, err := bantay.New(bantay.Config{
		Secret: cfg.JWTSecret,
		Store:  store,
		Provider: google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURI:  cfg.GoogleRedirectURI,
			Timeout:      cfg.ProviderTimeout,
		}),
		HTTP:           fiberadapter.New(app, fiberadapter.WithLogger(zl.Named("http"))),
		SessionConfig:  ptr(cfg.Session()),
		Logger:         zl,
		Observer:       recorder,
		BasePath:       cfg.BasePath,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("could not create bantay instance: %w", err)
	}

	// Routes behind the bantay middleware see the verified claims
	app.Get("/api/me", b.Protected.(fiber.Handler), MeHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	zl.Info("listening", zap.String("port", cfg.Port), zap.String("base_path", b.BasePath))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// openStore opens the store named by DATABASE_DRIVER and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (bantay.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		store, err := sqliteadapter.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pgxadapter.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgxadapter.New(pool), pool.Close, nil

	default:
		return nil, nil, errors.New("unsupported database driver " + cfg.DatabaseDriver)
	}
}

// MeHandler is an example protected endpoint returning the caller's claims.
func MeHandler(c fiber.Ctx) error {
	claims := c.Locals(fiberadapter.LocalsClaims).(*bantay.AccessClaims)

	return c.JSON(fiber.Map{
		"id":    claims.Subject,
		"email": claims.Email,
	})
}

func ptr[T any](v T) *T {
	return &v
}
