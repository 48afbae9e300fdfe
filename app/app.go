/*
Package app wires the HTTP server from a Config.

STARTUP SEQUENCE:
  1. Open the SQLite review store
  2. Create the review service and API handler
  3. Configure the HTTP router
  4. Serve until ctx is cancelled, then shut down gracefully

Shared by cmd/server and `overtimectl serve`.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/layout"
	"github.com/warp/overtime-engine/review"
	"github.com/warp/overtime-engine/store/sqlite"
)

// ShutdownTimeout bounds how long active requests may finish.
const ShutdownTimeout = 30 * time.Second

// NewHandler builds the API handler over store.
func NewHandler(cfg *config.Config, store review.Store, logger *slog.Logger) *api.Handler {
	svc := review.NewService(store)
	svc.Logger = logger

	h := api.NewHandler(svc, layout.NewFlowEngine(layout.DefaultContentWidth, cfg.Report.FontPath))
	h.Logger = logger
	h.MaxHeight = cfg.Report.MaxPageHeight
	h.MaxUploadBytes = cfg.Server.MaxUploadBytes
	h.Report = api.ReportSettings{
		CompanyName: cfg.Report.CompanyName,
		Title:       cfg.Report.Title,
		FontPath:    cfg.Report.FontPath,
	}
	if r, ok := store.(api.Resetter); ok {
		h.Resetter = r
	}
	return h
}

// Run serves the API until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	router := api.NewRouter(NewHandler(cfg, store, logger), api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.Int("port", cfg.Server.Port),
			slog.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
