package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"dokumenapi/docs"
	"dokumenapi/internal/config"
	"dokumenapi/internal/database"
	"dokumenapi/internal/database/migration"
	handlers "dokumenapi/internal/http/handler"
	"dokumenapi/internal/http/middleware"
	apiotel "dokumenapi/internal/otel"
	"dokumenapi/internal/repository/postgres"
	"dokumenapi/internal/service"
	"dokumenapi/internal/storage"
)

func newServeCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the document API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	log, flush, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer flush()

	shutdownTracing, err := apiotel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing_shutdown_failed", "error", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.Up(ctx, db, log); err != nil {
			return err
		}
	}

	store, err := storage.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(store, docRepo, service.Options{
		RootPrefix:    cfg.Storage.RootPrefix,
		MaxUploadSize: cfg.Upload.MaxSize,
		Logger:        log,
	})

	app, err := newServer(cfg, db, docSvc, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", addr, "storage_driver", cfg.Storage.Driver)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	timeout := time.Duration(cfg.HTTP.ShutdownTimeout) * time.Second
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newServer builds the Fiber app with global middleware, metrics and routes.
func newServer(cfg *config.AppConfig, db *sql.DB, docSvc service.DocumentService, log *slog.Logger, reg *prometheus.Registry) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "dokumenapi",
		BodyLimit:             int(cfg.HTTP.BodyLimit),
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	// RequestID must run first so every later middleware sees the id.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log.With("component", "http_access")))
	app.Use(prom.Handler())

	docs.SwaggerInfo.Host = cfg.AppHost
	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, docSvc, log)

	return app, nil
}
