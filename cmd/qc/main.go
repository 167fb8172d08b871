// Command qc runs the data-quality check passes once and writes the
// consolidated report.
//
// Usage:
//
//	go run ./cmd/qc -views working,current -format console
//	go run ./cmd/qc -format xlsx -out qc-report.xlsx
//
// Exit status is 0 when no error or internal findings were recorded, 1 when
// any were, and 2 when the run could not complete.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/covid-data-qc/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-qc/internal/adapter/source"
	"github.com/couchcryptid/covid-data-qc/internal/config"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/observability"
	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
	"github.com/couchcryptid/covid-data-qc/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	exitClean    = 0
	exitFindings = 1
	exitFatal    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	viewsFlag := flag.String("views", "working,current,history", "comma-separated views to check")
	formatFlag := flag.String("format", "console", "report format: console, json, csv or xlsx")
	outFlag := flag.String("out", "", "report path (default stdout)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFatal
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	views, err := parseViews(*viewsFlag)
	if err != nil {
		logger.Error("invalid -views", "error", err)
		return exitFatal
	}
	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		logger.Error("invalid -format", "error", err)
		return exitFatal
	}
	if format == report.FormatXLSX && *outFlag == "" {
		logger.Error("xlsx output requires -out")
		return exitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := source.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		return exitFatal
	}
	metrics := observability.NewMetrics()
	runner := pipeline.New(src, pipeline.Options{
		Thresholds:  cfg.Thresholds,
		PublishDate: cfg.PublishDate,
	}, logger, metrics)

	outcomes := make([]*pipeline.Outcome, 0, len(views))
	for _, view := range views {
		outcome, err := runner.Run(ctx, view)
		if err != nil {
			logger.Error("check pass failed", "view", view, "error", err)
			return exitFatal
		}
		if outcome == nil {
			logger.Info("view unavailable, skipped", "view", view)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := writeReport(*outFlag, format, outcomes); err != nil {
		logger.Error("failed to write report", "error", err)
		return exitFatal
	}
	if err := saveDiagnostics(cfg, outcomes, logger); err != nil {
		logger.Error("failed to save fit diagnostics", "error", err)
		return exitFatal
	}
	if cfg.KafkaEnabled() {
		if err := publish(ctx, cfg, outcomes, logger); err != nil {
			logger.Error("failed to publish findings", "error", err)
			return exitFatal
		}
	}
	if cfg.PushgatewayURL != "" {
		if err := push.New(cfg.PushgatewayURL, "covid_qc").Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
			logger.Warn("failed to push metrics", "url", cfg.PushgatewayURL, "error", err)
		}
	}

	for _, o := range outcomes {
		if o != nil && o.Report.HasErrors() {
			return exitFindings
		}
	}
	return exitClean
}

func parseViews(s string) ([]domain.View, error) {
	var views []domain.View
	for _, part := range strings.Split(s, ",") {
		v := domain.View(strings.TrimSpace(part))
		switch v {
		case "":
			continue
		case domain.ViewWorking, domain.ViewCurrent, domain.ViewHistory:
			views = append(views, v)
		default:
			return nil, fmt.Errorf("%w %q", pipeline.ErrUnknownView, v)
		}
	}
	if len(views) == 0 {
		return nil, errors.New("no views selected")
	}
	return views, nil
}

func writeReport(path string, format report.Format, outcomes []*pipeline.Outcome) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return report.Write(w, format, outcomes)
}

func saveDiagnostics(cfg *config.Config, outcomes []*pipeline.Outcome, logger *slog.Logger) error {
	for _, o := range outcomes {
		if o == nil || len(o.Fits) == 0 {
			continue
		}
		if cfg.SaveResults {
			paths, err := report.SaveFits(cfg.ResultsDir, o.View, o.Fits)
			if err != nil {
				return err
			}
			logger.Info("saved fits", "view", o.View, "count", len(paths), "dir", cfg.ResultsDir)
		}
		if cfg.PlotModels {
			paths, err := report.PlotFits(cfg.ImagesDir, o.View, o.Fits, cfg.Thresholds.Bounds)
			if err != nil {
				return err
			}
			logger.Info("plotted fits", "view", o.View, "count", len(paths), "dir", cfg.ImagesDir)
		}
	}
	return nil
}

func publish(ctx context.Context, cfg *config.Config, outcomes []*pipeline.Outcome, logger *slog.Logger) error {
	writer := kafka.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if err := writer.PublishFindings(ctx, o.View, o.Phase, o.TargetDate, o.Report.Findings); err != nil {
			return err
		}
	}
	return nil
}
