package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-qc/internal/adapter/ctapi"
	"github.com/couchcryptid/covid-data-qc/internal/adapter/sheets"
	"github.com/couchcryptid/covid-data-qc/internal/adapter/xlsx"
	"github.com/couchcryptid/covid-data-qc/internal/config"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

// reader is the shape shared by the per-backend adapters.
type reader interface {
	Working(ctx context.Context) ([]domain.Observation, error)
	Current(ctx context.Context) ([]domain.Observation, error)
	History(ctx context.Context) ([]domain.Observation, error)
}

// FromConfig builds a Mux reading each view from its configured backend.
// History reads are cached for cfg.HistoryCacheTTL.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Mux, error) {
	backends := map[config.SourceKind]reader{}
	backend := func(kind config.SourceKind) (reader, error) {
		if r, ok := backends[kind]; ok {
			return r, nil
		}
		var r reader
		switch kind {
		case config.SourceAPI:
			r = ctapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger)
		case config.SourceXLSX:
			r = xlsx.NewReader(cfg.XLSXPath, xlsx.Sheets{
				Working: xlsx.Sheet{Name: cfg.WorkingSheet, HeaderRows: cfg.WorkingHeaderRows},
				Current: xlsx.Sheet{Name: cfg.CurrentSheet, HeaderRows: 1},
				History: xlsx.Sheet{Name: cfg.HistorySheet, HeaderRows: 1},
			}, logger)
		case config.SourceSheets:
			svc, err := sheets.NewService(ctx, cfg.GoogleCredentialsFile)
			if err != nil {
				return nil, err
			}
			r = sheets.NewReader(svc, cfg.GoogleSheetID, sheets.Ranges{
				Working: sheets.Range{A1: cfg.WorkingRange, HeaderRows: cfg.WorkingHeaderRows},
				Current: sheets.Range{A1: cfg.CurrentRange, HeaderRows: 1},
				History: sheets.Range{A1: cfg.HistoryRange, HeaderRows: 1},
			}, logger)
		default:
			return nil, nil
		}
		backends[kind] = r
		return r, nil
	}

	var m Mux
	if r, err := backend(cfg.WorkingSource); err != nil {
		return Mux{}, fmt.Errorf("working source: %w", err)
	} else if r != nil {
		m.WorkingFunc = r.Working
	}
	if r, err := backend(cfg.CurrentSource); err != nil {
		return Mux{}, fmt.Errorf("current source: %w", err)
	} else if r != nil {
		m.CurrentFunc = r.Current
	}
	if r, err := backend(cfg.HistorySource); err != nil {
		return Mux{}, fmt.Errorf("history source: %w", err)
	} else if r != nil {
		m.HistoryFunc = CachedFunc(r.History, cfg.HistoryCacheTTL)
	}

	logger.Info("sources configured",
		"working", cfg.WorkingSource,
		"current", cfg.CurrentSource,
		"history", cfg.HistorySource,
	)
	return m, nil
}
