// Package checks implements the data quality rules run against each state's
// reported figures. Rules are pure functions of an observation, its prior
// history, and a Thresholds table; they never mutate their input.
package checks

import (
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Check names, used as the Finding.Check field and as metric labels.
const (
	NameTotal            = "total"
	NameLastUpdate       = "last-update"
	NameLastChecked      = "last-checked"
	NameCheckers         = "checkers"
	NamePositivesRate    = "positives-rate"
	NameDeathRate        = "death-rate"
	NameRecovered        = "recovered"
	NamePendingRate      = "pending-rate"
	NameIncreasingValues = "increasing-values"
	NameMonotonic        = "monotonic"
	NameExpectedPositive = "expected-positive-increase"
)

var printer = message.NewPrinter(language.English)

// Env is the evaluation context shared by every check of one pass.
type Env struct {
	Now        time.Time // wall clock of the pass, US/Eastern
	Target     time.Time // date whose figures are under review
	Phase      domain.Phase
	Thresholds Thresholds

	// Prior is the state's history strictly before Target, newest first.
	// Empty when no history is loaded.
	Prior []domain.Observation
}

// ForState returns a copy of env carrying the state's prior history.
func (e Env) ForState(series domain.HistorySeries) Env {
	e.Prior = series.Before(e.Target)
	return e
}

// Rule evaluates one observation.
type Rule func(obs domain.Observation, env Env) ([]domain.Finding, error)

// Check is a named rule.
type Check struct {
	Name string
	Run  Rule
}

// WorkingChecks are the row rules for the in-progress dev sheet.
func WorkingChecks() []Check {
	return []Check{
		{NameTotal, pure(Total)},
		{NameLastUpdate, pure(LastUpdate)},
		{NameLastChecked, pure(LastChecked)},
		{NameCheckers, pure(Checkers)},
		{NamePositivesRate, pure(PositivesRate)},
		{NameDeathRate, pure(DeathRate)},
		{NameRecovered, pure(LessRecoveredThanPositive)},
		{NamePendingRate, pure(PendingRate)},
	}
}

// CurrentChecks are the row rules for published values. Reviewer fields do
// not exist on the published table.
func CurrentChecks() []Check {
	return []Check{
		{NameTotal, pure(Total)},
		{NameLastUpdate, pure(LastUpdate)},
		{NamePositivesRate, pure(PositivesRate)},
		{NameDeathRate, pure(DeathRate)},
		{NamePendingRate, pure(PendingRate)},
	}
}

func pure(fn func(domain.Observation, Env) []domain.Finding) Rule {
	return func(obs domain.Observation, env Env) ([]domain.Finding, error) {
		return fn(obs, env), nil
	}
}

func finding(obs domain.Observation, sev domain.Severity, check, format string, args ...any) domain.Finding {
	return domain.Finding{
		State:    obs.State,
		Severity: sev,
		Check:    check,
		Message:  printer.Sprintf(format, args...),
	}
}
