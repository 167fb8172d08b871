package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/covid-data-qc/internal/adapter/http"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
	"github.com/couchcryptid/covid-data-qc/internal/resultlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	readyErr error
	outcome  *pipeline.Outcome
	err      error
	views    []domain.View
}

func (m *mockRunner) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockRunner) Run(_ context.Context, view domain.View) (*pipeline.Outcome, error) {
	m.views = append(m.views, view)
	switch view {
	case domain.ViewWorking, domain.ViewCurrent, domain.ViewHistory:
		return m.outcome, m.err
	default:
		return nil, fmt.Errorf("%w %q", pipeline.ErrUnknownView, view)
	}
}

func newTestServer(runner *mockRunner) *httpadapter.Server {
	return httpadapter.NewServer(":0", runner, prometheus.DefaultGatherer, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockRunner{readyErr: errors.New("no check pass has completed yet")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no check pass has completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestChecksReturnsReport(t *testing.T) {
	log := resultlog.New()
	log.Error("NY", "total", "Formula broken")
	runner := &mockRunner{outcome: &pipeline.Outcome{
		View:       domain.ViewCurrent,
		TargetDate: time.Date(2020, 4, 3, 17, 0, 0, 0, domain.Eastern()),
		Phase:      domain.PhasePublish,
		Report:     log.Consolidate(),
	}}
	srv := newTestServer(runner)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/checks/current", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.View{domain.ViewCurrent}, runner.views)

	var body pipeline.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ViewCurrent, body.View)
	require.Len(t, body.Report.Findings, 1)
	assert.Equal(t, "NY", body.Report.Findings[0].State)
	assert.Equal(t, 1, body.Report.Counts[domain.SeverityError])
}

func TestChecksUnknownViewReturns404(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/checks/county", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChecksUnavailableViewReturns204(t *testing.T) {
	srv := newTestServer(&mockRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/checks/working", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestChecksSourceErrorReturns502(t *testing.T) {
	srv := newTestServer(&mockRunner{err: errors.New("load current: timeout")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/checks/current", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}
