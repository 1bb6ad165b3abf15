package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/IncidentUpload/internal/catalog"
	"github.com/JonMunkholm/IncidentUpload/internal/config"
	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/JonMunkholm/IncidentUpload/internal/flow"
	"github.com/JonMunkholm/IncidentUpload/internal/logging"
	"github.com/JonMunkholm/IncidentUpload/internal/report"
	"github.com/JonMunkholm/IncidentUpload/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"flow_url", cfg.Flow.URL,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"report_path", cfg.Report.Path,
	)

	// The product map is read once; changes need a restart.
	ctx := context.Background()
	products, source, err := catalog.Load(ctx, cfg.Catalog)
	if err != nil {
		slog.Error("failed to load product catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("product catalog loaded", "source", source, "products", products.Len())

	reports := report.New(cfg.Report.Path)
	pipeline := core.NewPipeline(products, flow.New(cfg.Flow), reports)
	limiter := core.NewBatchLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)

	server := web.NewServer(cfg, pipeline, reports, limiter)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running batches finish so no row is left half-submitted.
		if active := limiter.Active(); active > 0 {
			slog.Info("waiting for batches to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
