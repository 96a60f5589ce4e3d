package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/scout-api/internal/api"
	apiMiddleware "github.com/phrazzld/scout-api/internal/api/middleware"
	"github.com/phrazzld/scout-api/internal/config"
	"github.com/phrazzld/scout-api/internal/platform/gemini"
	"github.com/phrazzld/scout-api/internal/platform/postgres"
	"github.com/phrazzld/scout-api/internal/service"
	"github.com/phrazzld/scout-api/internal/store"
)

// shutdownTimeout bounds how long in-flight requests get to finish after
// a termination signal.
const shutdownTimeout = 15 * time.Second

// application holds the wired dependencies of the running server.
type application struct {
	config           *config.Config
	logger           *slog.Logger
	db               *sql.DB
	detectionService *service.DetectionService
}

// newApplication builds the dependency graph: optional database with
// migrations, the Gemini detector, and the governed detection service.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	var (
		db      *sql.DB
		history store.DetectionStore
	)

	if cfg.Database.URL != "" {
		opened, err := openDatabase(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := runMigrations(opened, logger); err != nil {
			_ = opened.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db = opened
		history = postgres.NewDetectionStore(db)
	} else {
		logger.Info("database not configured, detection history disabled")
	}

	detector, err := gemini.New(ctx, logger, cfg.LLM)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to create Gemini detector: %w", err)
	}

	detectionService, err := service.NewDetectionService(detector, cfg.Governor, history, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to create detection service: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		detectionService: detectionService,
	}, nil
}

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	detectionHandler := api.NewDetectionHandler(app.detectionService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/detections", detectionHandler.CreateDetection)
		r.Get("/detections", detectionHandler.ListDetections)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

// run starts the HTTP server and blocks until ctx is cancelled or the
// server fails, then drains in-flight requests.
func (app *application) run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}

// close releases the application's long-lived resources.
func (app *application) close() {
	app.detectionService.Close()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
