// Package sheets reads check views from the reviewers' Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/table"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ValuesGetter reads a cell range as rows of cell values.
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, cellRange string) ([][]any, error)
}

// Range is an A1-notation range and the number of header rows it starts
// with. A blank A1 marks the view as absent.
type Range struct {
	A1         string
	HeaderRows int
}

// Ranges maps each view to its range in the spreadsheet.
type Ranges struct {
	Working Range
	Current Range
	History Range
}

// Reader reads views from one spreadsheet.
type Reader struct {
	values        ValuesGetter
	spreadsheetID string
	ranges        Ranges
	logger        *slog.Logger
}

// NewReader creates a Reader for spreadsheetID.
func NewReader(values ValuesGetter, spreadsheetID string, ranges Ranges, logger *slog.Logger) *Reader {
	return &Reader{values: values, spreadsheetID: spreadsheetID, ranges: ranges, logger: logger}
}

func (r *Reader) Working(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewWorking, r.ranges.Working)
}

func (r *Reader) Current(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewCurrent, r.ranges.Current)
}

func (r *Reader) History(ctx context.Context) ([]domain.Observation, error) {
	return r.read(ctx, domain.ViewHistory, r.ranges.History)
}

func (r *Reader) read(ctx context.Context, view domain.View, rng Range) ([]domain.Observation, error) {
	if rng.A1 == "" {
		return nil, domain.ErrViewUnavailable
	}

	r.logger.Info("reading sheet range", "view", view, "range", rng.A1)
	raw, err := r.values.GetValues(ctx, r.spreadsheetID, rng.A1)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
			// the API rejects ranges naming a sheet that does not exist
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrViewUnavailable, rng.A1, gerr.Message)
		}
		return nil, fmt.Errorf("read range %s: %w", rng.A1, err)
	}

	tbl, err := table.FromValues(Stringify(raw), rng.HeaderRows)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", rng.A1, err)
	}
	obs, err := tbl.Observations()
	if err != nil {
		return nil, fmt.Errorf("range %s: %w", rng.A1, err)
	}
	return obs, nil
}

// Stringify renders API cell values as text. Nil cells read as blank.
func Stringify(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch s := v.(type) {
			case nil:
			case string:
				cells[j] = s
			default:
				cells[j] = fmt.Sprint(s)
			}
		}
		out[i] = cells
	}
	return out
}

// Service adapts the Sheets API client to ValuesGetter.
type Service struct {
	svc *sheetsapi.Service
}

// NewService creates a read-only Sheets client. An empty credentialsFile
// falls back to application default credentials.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Service, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope)}, opts...)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// GetValues implements ValuesGetter.
func (s *Service) GetValues(ctx context.Context, spreadsheetID, cellRange string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, cellRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
