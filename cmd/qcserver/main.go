// Command qcserver serves check passes on demand over HTTP, along with
// health, readiness, and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/covid-data-qc/internal/adapter/http"
	"github.com/couchcryptid/covid-data-qc/internal/adapter/source"
	"github.com/couchcryptid/covid-data-qc/internal/config"
	"github.com/couchcryptid/covid-data-qc/internal/observability"
	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(2)
	}
	runner := pipeline.New(src, pipeline.Options{
		Thresholds:  cfg.Thresholds,
		PublishDate: cfg.PublishDate,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, prometheus.DefaultGatherer, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
