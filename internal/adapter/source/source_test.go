package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/config"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFunc struct {
	calls int
	rows  []domain.Observation
	err   error
}

func (c *countingFunc) read(context.Context) ([]domain.Observation, error) {
	c.calls++
	return c.rows, c.err
}

func useFakeClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	clk := clockwork.NewFakeClockAt(time.Date(2020, 4, 3, 12, 0, 0, 0, time.UTC))
	domain.SetClock(clk)
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })
	return clk
}

func TestMux_RoutesViews(t *testing.T) {
	current := &countingFunc{rows: []domain.Observation{{State: "NY"}}}
	m := Mux{CurrentFunc: current.read}

	rows, err := m.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NY", rows[0].State)
	assert.Equal(t, 1, current.calls)

	_, err = m.Working(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
	_, err = m.History(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestCachedFunc_ReusesWithinTTL(t *testing.T) {
	clk := useFakeClock(t)
	inner := &countingFunc{rows: []domain.Observation{{State: "NY"}}}
	cached := CachedFunc(inner.read, time.Minute)

	_, err := cached(context.Background())
	require.NoError(t, err)
	_, err = cached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second read should hit the cache")

	clk.Advance(2 * time.Minute)
	_, err = cached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "expired entry should refetch")
}

func TestCachedFunc_ErrorsNotCached(t *testing.T) {
	useFakeClock(t)
	inner := &countingFunc{err: errors.New("timeout")}
	cached := CachedFunc(inner.read, time.Minute)

	_, err := cached(context.Background())
	require.Error(t, err)
	_, err = cached(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestFromConfig_UnconfiguredViews(t *testing.T) {
	cfg := &config.Config{
		WorkingSource:   config.SourceNone,
		CurrentSource:   config.SourceNone,
		HistorySource:   config.SourceNone,
		HistoryCacheTTL: time.Minute,
	}
	m, err := FromConfig(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = m.Working(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
	_, err = m.Current(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestFromConfig_XLSXSharedAcrossViews(t *testing.T) {
	cfg := &config.Config{
		WorkingSource:   config.SourceXLSX,
		CurrentSource:   config.SourceXLSX,
		HistorySource:   config.SourceXLSX,
		XLSXPath:        "qc.xlsx",
		WorkingSheet:    "Worksheet 2",
		CurrentSheet:    "",
		HistorySheet:    "History",
		HistoryCacheTTL: time.Minute,
	}
	m, err := FromConfig(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, m.WorkingFunc)
	require.NotNil(t, m.HistoryFunc)

	_, err = m.Current(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable, "blank sheet name reads as unavailable")
}
