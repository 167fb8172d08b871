package checks

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/forecast"
	"gopkg.in/yaml.v3"
)

// ErrInvalidThresholds wraps every threshold validation failure.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// RateLimit caps a percentage of the test denominator. States whose
// denominator exceeds TotalAbove are held to Large, smaller ones to Small.
type RateLimit struct {
	TotalAbove int64   `yaml:"total_above"`
	Large      float64 `yaml:"large_max_percent"`
	Small      float64 `yaml:"small_max_percent"`
	MinCount   int64   `yaml:"min_count"` // the numerator must also exceed this
}

// PercentRange is an inclusive band of expected day-over-day growth.
type PercentRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Thresholds is the immutable policy table every check reads from.
type Thresholds struct {
	StalenessDays     float64 `yaml:"staleness_days"`
	CheckLagHours     float64 `yaml:"check_lag_hours"`
	UncheckedHours    float64 `yaml:"unchecked_hours"`
	MorningCutoffHour int     `yaml:"morning_cutoff_hour"`

	Positivity  RateLimit `yaml:"positivity"`
	DeathRate   RateLimit `yaml:"death_rate"`
	PendingRate RateLimit `yaml:"pending_rate"`

	// IgnoreBelow skips staleness and growth checks for small counts.
	IgnoreBelow map[domain.Column]int64 `yaml:"ignore_below"`
	// UnchangedErrorAbove makes an unchanged value an error rather than a
	// warning once the previous value exceeds it.
	UnchangedErrorAbove int64                          `yaml:"unchanged_error_above"`
	ExpectedGrowth      map[domain.Column]PercentRange `yaml:"expected_growth"`

	Fit    forecast.FitOptions `yaml:"fit"`
	Bounds forecast.Bounds     `yaml:"bounds"`
}

// DefaultThresholds returns the reviewer tracking sheet's policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StalenessDays:     1.5,
		CheckLagHours:     2,
		UncheckedHours:    12,
		MorningCutoffHour: 8,

		Positivity:  RateLimit{TotalAbove: 100, Large: 40, Small: 80, MinCount: 20},
		DeathRate:   RateLimit{TotalAbove: 100, Large: 5, Small: 10},
		PendingRate: RateLimit{TotalAbove: 1000, Large: 20, Small: 80},

		IgnoreBelow: map[domain.Column]int64{
			domain.ColPositive: 100,
			domain.ColNegative: 900,
			domain.ColDeath:    20,
			domain.ColTotal:    1000,
		},
		UnchangedErrorAbove: 20,
		ExpectedGrowth: map[domain.Column]PercentRange{
			domain.ColPositive: {Min: 5, Max: 40},
			domain.ColNegative: {Min: 5, Max: 50},
			domain.ColDeath:    {Min: 0, Max: 10},
			domain.ColTotal:    {Min: 5, Max: 50},
		},

		Fit:    forecast.DefaultFitOptions(),
		Bounds: forecast.DefaultBounds(),
	}
}

// LoadThresholds overlays the YAML file at path onto the defaults. Keys
// absent from the file keep their default values. An empty path returns
// the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Thresholds{}, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return Thresholds{}, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := th.Validate(); err != nil {
		return Thresholds{}, err
	}
	return th, nil
}

// Validate rejects tables no check could sensibly apply.
func (t Thresholds) Validate() error {
	switch {
	case t.StalenessDays <= 0:
		return fmt.Errorf("%w: staleness_days must be positive", ErrInvalidThresholds)
	case t.CheckLagHours <= 0 || t.UncheckedHours <= 0:
		return fmt.Errorf("%w: check lag hours must be positive", ErrInvalidThresholds)
	case t.MorningCutoffHour < 0 || t.MorningCutoffHour > 23:
		return fmt.Errorf("%w: morning_cutoff_hour must be 0-23", ErrInvalidThresholds)
	case t.Fit.MinPoints < 2:
		return fmt.Errorf("%w: fit.min_points must be at least 2", ErrInvalidThresholds)
	case t.Fit.Window != 0 && t.Fit.Window < t.Fit.MinPoints:
		return fmt.Errorf("%w: fit.window is smaller than fit.min_points", ErrInvalidThresholds)
	}
	if err := t.Bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	for col, r := range t.ExpectedGrowth {
		if r.Min > r.Max {
			return fmt.Errorf("%w: expected_growth.%s min exceeds max", ErrInvalidThresholds, col)
		}
	}
	return nil
}
