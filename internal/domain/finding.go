package domain

import (
	"fmt"
	"time"
)

// Severity classifies a finding. Internal marks a fault while evaluating a
// check rather than a data problem.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityInternal Severity = "internal"
)

// Severities lists every severity from most to least urgent.
var Severities = []Severity{SeverityInternal, SeverityError, SeverityWarning, SeverityInfo}

// Rank orders severities for presentation; higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityInternal:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Finding is a single flagged anomaly scoped to one state.
type Finding struct {
	State    string   `json:"state"`
	Severity Severity `json:"severity"`
	Check    string   `json:"check"`
	Message  string   `json:"message"`
}

// NewFinding formats a finding message.
func NewFinding(state string, sev Severity, check, format string, args ...any) Finding {
	return Finding{State: state, Severity: sev, Check: check, Message: fmt.Sprintf(format, args...)}
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.State, f.Severity, f.Check, f.Message)
}

// FitResult is the output of fitting linear and exponential curves to a
// state's positive history and projecting the target date.
type FitResult struct {
	State       string    `json:"state"`
	TargetDate  time.Time `json:"target_date"`
	Actual      float64   `json:"actual"`
	Linear      float64   `json:"linear"`
	Exponential float64   `json:"exponential"`

	LinearIntercept float64    `json:"linear_intercept"`
	LinearSlope     float64    `json:"linear_slope"`
	ExpIntercept    float64    `json:"exp_intercept"` // ln-space
	ExpSlope        float64    `json:"exp_slope"`     // ln-space, per day
	Origin          time.Time  `json:"origin"`        // day offset zero
	Points          []FitPoint `json:"points"`
}

// FitPoint is one (date, value) sample used in a fit.
type FitPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
