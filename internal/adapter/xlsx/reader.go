// Package xlsx reads the working, current, and history views from a
// workbook export of the reviewer spreadsheet.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/table"
	"github.com/xuri/excelize/v2"
)

// Sheet locates one view inside the workbook. A blank Name marks the view
// as absent.
type Sheet struct {
	Name       string
	HeaderRows int
}

// Sheets maps each view to its worksheet.
type Sheets struct {
	Working Sheet
	Current Sheet
	History Sheet
}

// Reader opens the workbook on every call so a re-exported file is picked
// up between passes.
type Reader struct {
	path   string
	sheets Sheets
	logger *slog.Logger
}

// NewReader creates a Reader for the workbook at path.
func NewReader(path string, sheets Sheets, logger *slog.Logger) *Reader {
	return &Reader{path: path, sheets: sheets, logger: logger}
}

func (r *Reader) Working(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewWorking, r.sheets.Working)
}

func (r *Reader) Current(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewCurrent, r.sheets.Current)
}

func (r *Reader) History(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewHistory, r.sheets.History)
}

func (r *Reader) read(ctx context.Context, view domain.View, sheet Sheet) ([]domain.Observation, error) {
	if sheet.Name == "" {
		return nil, domain.ErrViewUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if !hasSheet(f, sheet.Name) {
		r.logger.Info("worksheet not found", "view", view, "sheet", sheet.Name, "path", r.path)
		return nil, fmt.Errorf("%w: sheet %q", domain.ErrViewUnavailable, sheet.Name)
	}

	rows, err := f.GetRows(sheet.Name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet.Name, err)
	}
	tbl, err := table.FromValues(rows, sheet.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
	}
	obs, err := tbl.Observations()
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
	}
	r.logger.Debug("read worksheet", "view", view, "sheet", sheet.Name, "rows", len(obs))
	return obs, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}
