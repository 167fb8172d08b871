package checks

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/forecast"
)

// ExpectedPositiveIncrease fits the state's prior positive counts and
// flags a reported value outside the forecast envelope. Too little history
// yields an info finding and a nil fit; any other fitting failure is
// returned as an error.
func ExpectedPositiveIncrease(obs domain.Observation, env Env) ([]domain.Finding, *domain.FitResult, error) {
	points := make([]domain.FitPoint, 0, len(env.Prior))
	for _, p := range env.Prior {
		points = append(points, domain.FitPoint{Date: p.Date, Value: float64(p.Positive)})
	}

	fit, err := forecast.Fit(obs.State, points, env.Target, float64(obs.Positive), env.Thresholds.Fit)
	if errors.Is(err, forecast.ErrInsufficientHistory) {
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityInfo, NameExpectedPositive,
			"forecast skipped: %v", err)}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", obs.State, err)
	}

	verdict := forecast.Evaluate(fit, env.Thresholds.Bounds)
	if verdict.Expected() {
		return nil, &fit, nil
	}
	return []domain.Finding{{
		State:    obs.State,
		Severity: domain.SeverityError,
		Check:    NameExpectedPositive,
		Message:  forecast.Describe(fit, verdict),
	}}, &fit, nil
}
