// Package ctapi reads published state figures from the COVID Tracking
// Project HTTP API.
package ctapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/table"
)

// DefaultBaseURL is the v1 API root.
const DefaultBaseURL = "https://api.covidtracking.com/v1"

// Client fetches the current and history views. The API has no working
// view.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Working always reports the view as unavailable.
func (c *Client) Working(context.Context) ([]domain.Observation, error) {
	return nil, domain.ErrViewUnavailable
}

// Current returns each state's most recent published values.
func (c *Client) Current(ctx context.Context) ([]domain.Observation, error) {
	return c.fetch(ctx, "states/current.json")
}

// History returns one row per state per reporting date.
func (c *Client) History(ctx context.Context) ([]domain.Observation, error) {
	return c.fetch(ctx, "states/daily.json")
}

func (c *Client) fetch(ctx context.Context, path string) ([]domain.Observation, error) {
	recs, err := c.doRequest(ctx, c.baseURL+"/"+path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Observation, 0, len(recs))
	for _, rec := range recs {
		obs, err := rec.observation()
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", path, rec.State, err)
		}
		out = append(out, obs)
	}
	c.logger.Debug("fetched api view", "path", path, "rows", len(out))
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrViewUnavailable, fullURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("covid tracking API error: status %d: %s", resp.StatusCode, body)
	}

	var recs []record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return recs, nil
}

// COVID Tracking API response types. Null counts decode as zero.

type record struct {
	State                  string `json:"state"`
	Date                   int    `json:"date"`
	Positive               int64  `json:"positive"`
	Negative               int64  `json:"negative"`
	Pending                int64  `json:"pending"`
	Death                  int64  `json:"death"`
	Recovered              int64  `json:"recovered"`
	Hospitalized           int64  `json:"hospitalized"`
	HospitalizedCumulative int64  `json:"hospitalizedCumulative"`
	Total                  int64  `json:"total"`
	LastUpdateEt           string `json:"lastUpdateEt"`
	DateModified           string `json:"dateModified"`
	CheckTimeEt            string `json:"checkTimeEt"`
	DateChecked            string `json:"dateChecked"`
}

func (r record) observation() (domain.Observation, error) {
	obs := domain.Observation{
		State:        strings.ToUpper(r.State),
		Positive:     r.Positive,
		Negative:     r.Negative,
		Pending:      r.Pending,
		Death:        r.Death,
		Recovered:    r.Recovered,
		Hospitalized: r.HospitalizedCumulative,
		Total:        r.Total,
	}
	if obs.Hospitalized == 0 {
		obs.Hospitalized = r.Hospitalized
	}
	if obs.Total == 0 {
		obs.Total = r.Positive + r.Negative + r.Pending
	}
	if r.Date != 0 {
		obs.Date = domain.DateFromKey(r.Date)
	}

	var err error
	if obs.LastUpdate, err = firstTimestamp(r.DateModified, r.LastUpdateEt); err != nil {
		return domain.Observation{}, fmt.Errorf("last update: %w", err)
	}
	if obs.LastCheck, err = firstTimestamp(r.DateChecked, r.CheckTimeEt); err != nil {
		return domain.Observation{}, fmt.Errorf("last check: %w", err)
	}
	return obs, nil
}

// firstTimestamp parses the first non-blank candidate.
func firstTimestamp(candidates ...string) (time.Time, error) {
	for _, s := range candidates {
		if strings.TrimSpace(s) != "" {
			return table.ParseTimestamp(s)
		}
	}
	return time.Time{}, nil
}
