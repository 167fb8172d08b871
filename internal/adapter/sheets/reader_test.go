package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGetter struct {
	values map[string][][]any
	err    error
	calls  []string
}

func (f *fakeGetter) GetValues(_ context.Context, id, rng string) ([][]any, error) {
	f.calls = append(f.calls, id+"/"+rng)
	if f.err != nil {
		return nil, f.err
	}
	return f.values[rng], nil
}

var testRanges = Ranges{
	Working: Range{A1: "Worksheet 2!A2:AQ60", HeaderRows: 2},
	History: Range{A1: "History!A1:Z", HeaderRows: 1},
}

func TestReader_Working(t *testing.T) {
	getter := &fakeGetter{values: map[string][][]any{
		"Worksheet 2!A2:AQ60": {
			{"", "Tests", "", "", "", "", "Reviewer"},
			{"State", "Positive", "Negative", "Pending", "Total", "Deaths", "Checker", "Double Checker"},
			{"NY", "1,000", "9,000", nil, "10,000", 12.0, "AB", "CD"},
		},
	}}
	r := NewReader(getter, "sheet-id", testRanges, discardLogger())

	obs, err := r.Working(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, int64(10000), obs[0].Total)
	assert.Equal(t, int64(12), obs[0].Death)
	assert.Equal(t, "AB", obs[0].Checker)
	assert.Equal(t, []string{"sheet-id/Worksheet 2!A2:AQ60"}, getter.calls)
}

func TestReader_UnconfiguredRange(t *testing.T) {
	r := NewReader(&fakeGetter{}, "sheet-id", testRanges, discardLogger())
	_, err := r.Current(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestReader_BadRangeIsUnavailable(t *testing.T) {
	getter := &fakeGetter{err: &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: History!A1:Z"}}
	r := NewReader(getter, "sheet-id", testRanges, discardLogger())
	_, err := r.History(context.Background())
	require.ErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestReader_TransportError(t *testing.T) {
	getter := &fakeGetter{err: errors.New("connection reset")}
	r := NewReader(getter, "sheet-id", testRanges, discardLogger())
	_, err := r.History(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrViewUnavailable)
}

func TestStringify(t *testing.T) {
	got := Stringify([][]any{{"a", nil, 3.5, int64(7), true}})
	assert.Equal(t, [][]string{{"a", "", "3.5", "7", "true"}}, got)
}

func TestService_GetValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "History!A1:C2",
			"majorDimension": "ROWS",
			"values":         [][]string{{"State", "Date", "Positive"}, {"NY", "20200402", "90"}},
		})
	}))
	defer srv.Close()

	svc, err := NewService(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	r := NewReader(svc, "sheet-id", testRanges, discardLogger())
	obs, err := r.History(context.Background())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, int64(90), obs[0].Positive)
}
