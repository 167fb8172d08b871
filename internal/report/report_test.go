package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/forecast"
	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
	"github.com/couchcryptid/covid-data-qc/internal/resultlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testOutcomes() []*pipeline.Outcome {
	working := resultlog.New()
	working.Error("NY", "total", "Formula broken")
	working.Warning("WA", "checkers", "missing checker initials")
	working.Warning("NY", "increasing-values", "death value (20) is a 100%% increase")

	history := resultlog.New()

	return []*pipeline.Outcome{
		{
			View:       domain.ViewWorking,
			TargetDate: domain.DateFromKey(20200403),
			Phase:      domain.PhaseWorking,
			Report:     working.Consolidate(),
		},
		nil,
		{
			View:       domain.ViewHistory,
			TargetDate: domain.DateFromKey(20200402),
			Phase:      domain.PhasePublish,
			Report:     history.Consolidate(),
		},
	}
}

func testFit() domain.FitResult {
	origin := domain.DateFromKey(20200330)
	return domain.FitResult{
		State:           "NY",
		TargetDate:      domain.DateFromKey(20200403),
		Actual:          520,
		Linear:          500,
		Exponential:     640,
		LinearIntercept: 100,
		LinearSlope:     100,
		ExpIntercept:    4.7,
		ExpSlope:        0.46,
		Origin:          origin,
		Points: []domain.FitPoint{
			{Date: origin, Value: 100},
			{Date: origin.AddDate(0, 0, 1), Value: 200},
			{Date: origin.AddDate(0, 0, 2), Value: 300},
			{Date: origin.AddDate(0, 0, 3), Value: 400},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("html")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatConsole, testOutcomes()))

	want := `== working checks for 2020-04-03 (working) ==
NY
  [error] total: Formula broken
  [warning] increasing-values: death value (20) is a 100% increase
WA
  [warning] checkers: missing checker initials
0 internal, 1 errors, 2 warnings, 0 info

== history checks for 2020-04-02 (publish) ==
no findings
0 internal, 0 errors, 0 warnings, 0 info
`
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, testOutcomes()))

	var got []pipeline.Outcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2, "unavailable views are skipped")
	assert.Equal(t, domain.ViewWorking, got[0].View)
	assert.Len(t, got[0].Report.Findings, 3)
	assert.Equal(t, 2, got[0].Report.Counts[domain.SeverityWarning])
	assert.Empty(t, got[1].Report.Findings)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, testOutcomes()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, findingHeader, rows[0])
	assert.Equal(t, []string{"working", "2020-04-03", "working", "NY", "error", "total", "Formula broken"}, rows[1])
	assert.Equal(t, "WA", rows[3][3])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, testOutcomes()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "working", "history"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"view", "target_date", "phase", "internal", "error", "warning", "info"}, summary[0])
	assert.Equal(t, []string{"working", "2020-04-03", "working", "0", "1", "2", "0"}, summary[1])

	working, err := f.GetRows("working")
	require.NoError(t, err)
	require.Len(t, working, 4)
	assert.Equal(t, []string{"NY", "error", "total", "Formula broken"}, working[1])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("html"), nil)
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSaveFits(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveFits(dir, domain.ViewCurrent, []domain.FitResult{testFit()})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "current", "NY_20200403.json")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var got domain.FitResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "NY", got.State)
	assert.InDelta(t, 520.0, got.Actual, 1e-9)
	assert.Len(t, got.Points, 4)
}

func TestSaveFits_NoneIsNoop(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveFits(dir, domain.ViewCurrent, nil)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = os.Stat(filepath.Join(dir, "current"))
	assert.True(t, os.IsNotExist(err))
}

func TestPlotFits(t *testing.T) {
	dir := t.TempDir()
	paths, err := PlotFits(dir, domain.ViewWorking, []domain.FitResult{testFit()}, forecast.DefaultBounds())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "working", "NY_20200403.png"), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "should be a PNG")
}

func TestFitPlotBounds(t *testing.T) {
	fit := testFit()
	fit.Actual = 2000
	p, err := fitPlot(fit, forecast.DefaultBounds())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.X.Max, 1e-9)
	assert.InDelta(t, 2200.0, p.Y.Max, 1e-6)
}
