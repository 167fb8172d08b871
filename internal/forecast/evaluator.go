package forecast

import (
	"errors"
	"strconv"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Direction describes how an actual value deviates from the fitted envelope.
type Direction string

const (
	DirectionNone     Direction = ""
	DirectionDrop     Direction = "drop"
	DirectionIncrease Direction = "increase"
)

// Bounds scales the projections into the accepted envelope:
// [Lower × linear, Upper × exponential].
type Bounds struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// DefaultBounds returns the standard 0.95 / 1.10 tolerances.
func DefaultBounds() Bounds {
	return Bounds{Lower: 0.95, Upper: 1.10}
}

// Validate rejects non-positive factors.
func (b Bounds) Validate() error {
	if b.Lower <= 0 || b.Upper <= 0 {
		return errors.New("fit bounds must be positive")
	}
	return nil
}

// Verdict is the outcome of comparing an actual value with its fit.
type Verdict struct {
	Direction Direction
	Min       float64
	Max       float64
}

// Expected reports whether the actual value fell inside the envelope.
func (v Verdict) Expected() bool { return v.Direction == DirectionNone }

// Evaluate classifies fit.Actual against the envelope. Both bounds are
// inclusive. Outside the envelope, the direction is taken relative to the
// linear projection rather than the bound that was crossed.
func Evaluate(fit domain.FitResult, b Bounds) Verdict {
	v := Verdict{
		Min: b.Lower * fit.Linear,
		Max: b.Upper * fit.Exponential,
	}
	if fit.Actual >= v.Min && fit.Actual <= v.Max {
		return v
	}
	v.Direction = DirectionIncrease
	if fit.Actual < fit.Linear {
		v.Direction = DirectionDrop
	}
	return v
}

// Describe renders the verdict as a reviewer-facing message.
func Describe(fit domain.FitResult, v Verdict) string {
	return printer.Sprintf("Unexpected %s in positive cases (%d) for %s, expected between %d and %d",
		v.Direction, int64(fit.Actual), strconv.Itoa(domain.DateKey(fit.TargetDate)), int64(v.Min), int64(v.Max))
}
