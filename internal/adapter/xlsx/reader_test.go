package xlsx

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeWorkbook saves a workbook whose sheets hold the given rows.
func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "qc.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReader_ReadsViews(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Worksheet 2": {
			{"", "Tests"},
			{"State", "Positive", "Negative", "Pending", "Total"},
			{"NY", 100, 900, 0, 1000},
			{"WA", 10, 90, 0, 100},
		},
		"History": {
			{"State", "Date", "Positive"},
			{"NY", "20200402", 90},
		},
	})
	r := NewReader(path, Sheets{
		Working: Sheet{Name: "Worksheet 2", HeaderRows: 2},
		Current: Sheet{Name: "Current", HeaderRows: 1},
		History: Sheet{Name: "History", HeaderRows: 1},
	}, discardLogger())

	working, err := r.Working(context.Background())
	require.NoError(t, err)
	require.Len(t, working, 2)
	assert.Equal(t, "NY", working[0].State)
	assert.Equal(t, int64(900), working[0].Negative)
	assert.Equal(t, int64(1000), working[0].Total)

	history, err := r.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 20200402, history[0].DateKey())

	_, err = r.Current(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestReader_BlankSheetNameIsUnavailable(t *testing.T) {
	r := NewReader("does-not-matter.xlsx", Sheets{}, discardLogger())
	_, err := r.Working(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "missing.xlsx"), Sheets{History: Sheet{Name: "History"}}, discardLogger())
	_, err := r.History(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReader("qc.xlsx", Sheets{History: Sheet{Name: "History"}}, discardLogger())
	_, err := r.History(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
