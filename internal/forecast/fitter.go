// Package forecast projects a state's expected case count for a target date
// from its recent history and decides whether the reported value is plausible.
//
// Two curves bracket the expectation: an ordinary least-squares line gives the
// lower bound and a log-linear (exponential) fit gives the upper bound.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientHistory is returned when too few points precede the target date.
var ErrInsufficientHistory = errors.New("insufficient history")

// FitOptions controls which history points are fitted.
type FitOptions struct {
	MinPoints int `yaml:"min_points"` // fewer usable points fails with ErrInsufficientHistory
	Window    int `yaml:"window"`     // keep only the most recent N points; 0 keeps all
}

// DefaultFitOptions returns the options used when none are configured.
func DefaultFitOptions() FitOptions {
	return FitOptions{MinPoints: 3, Window: 10}
}

// Fit fits linear and exponential models to history and projects both to
// target. Points on or after the target's calendar day are ignored. The
// result is deterministic for identical input and never negative.
func Fit(state string, history []domain.FitPoint, target time.Time, actual float64, opts FitOptions) (domain.FitResult, error) {
	points := prepare(history, target, opts.Window)
	minPoints := max(opts.MinPoints, 2)
	if len(points) < minPoints {
		return domain.FitResult{}, fmt.Errorf("%w: %s has %d points before %d, need %d",
			ErrInsufficientHistory, state, len(points), domain.DateKey(target), minPoints)
	}

	origin := points[0].Date
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(domain.DaysBetween(origin, p.Date))
		ys[i] = p.Value
	}
	xt := float64(domain.DaysBetween(origin, target))

	res := domain.FitResult{
		State:      state,
		TargetDate: target,
		Actual:     actual,
		Origin:     origin,
		Points:     points,
	}

	if constant(ys) {
		res.LinearIntercept = ys[0]
		res.Linear = clamp(ys[0])
		res.Exponential = res.Linear
		if ys[0] > 0 {
			res.ExpIntercept = math.Log(ys[0])
		}
		return res, nil
	}

	res.LinearIntercept, res.LinearSlope = stat.LinearRegression(xs, ys, nil, false)
	res.Linear = clamp(res.LinearIntercept + res.LinearSlope*xt)

	lx, ly := logSpace(xs, ys)
	if len(lx) < 2 {
		res.Exponential = res.Linear
		return res, nil
	}
	res.ExpIntercept, res.ExpSlope = stat.LinearRegression(lx, ly, nil, false)
	res.Exponential = clamp(math.Exp(res.ExpIntercept + res.ExpSlope*xt))
	return res, nil
}

// prepare drops points on or after the target day, sorts oldest first, and
// applies the window.
func prepare(history []domain.FitPoint, target time.Time, window int) []domain.FitPoint {
	cutoff := domain.DateKey(target)
	points := make([]domain.FitPoint, 0, len(history))
	for _, p := range history {
		if domain.DateKey(p.Date) < cutoff {
			points = append(points, p)
		}
	}
	sortPoints(points)
	if window > 0 && len(points) > window {
		points = points[len(points)-window:]
	}
	return points
}

func sortPoints(points []domain.FitPoint) {
	// insertion sort keeps equal dates in input order
	for i := 1; i < len(points); i++ {
		for j := i; j > 0 && points[j].Date.Before(points[j-1].Date); j-- {
			points[j], points[j-1] = points[j-1], points[j]
		}
	}
}

// logSpace maps positive samples to ln(value); non-positive samples have no
// logarithm and are excluded.
func logSpace(xs, ys []float64) ([]float64, []float64) {
	lx := make([]float64, 0, len(xs))
	ly := make([]float64, 0, len(ys))
	for i, y := range ys {
		if y > 0 {
			lx = append(lx, xs[i])
			ly = append(ly, math.Log(y))
		}
	}
	return lx, ly
}

func constant(ys []float64) bool {
	for _, y := range ys[1:] {
		if y != ys[0] {
			return false
		}
	}
	return true
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
