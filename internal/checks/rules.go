package checks

import (
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

const stampLayout = "01/02 15:04"

// Total flags rows whose components do not sum to the reported total.
func Total(obs domain.Observation, _ Env) []domain.Finding {
	delta := obs.Total - (obs.Positive + obs.Negative + obs.Pending)
	if delta == 0 {
		return nil
	}
	return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityError, NameTotal,
		"Formula broken -> Positive (%d) + Negative (%d) + Pending (%d) != Total (%d), delta = %d",
		obs.Positive, obs.Negative, obs.Pending, obs.Total, delta)}
}

// LastUpdate flags sources that have not published within the staleness window.
func LastUpdate(obs domain.Observation, env Env) []domain.Finding {
	if obs.LastUpdate.IsZero() {
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityError, NameLastUpdate,
			"last update time is missing")}
	}
	days := env.Now.Sub(obs.LastUpdate).Hours() / 24
	if days < env.Thresholds.StalenessDays {
		return nil
	}
	return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityError, NameLastUpdate,
		"source hasn't updated in %.1f days", days)}
}

// LastChecked flags rows updated after their last review, and rows whose
// update has gone unreviewed for too long.
func LastChecked(obs domain.Observation, env Env) []domain.Finding {
	if obs.LastCheck.IsZero() {
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityError, NameLastChecked,
			"last check time is missing")}
	}
	if obs.LastUpdate.IsZero() {
		return nil // reported by last-update
	}
	th := env.Thresholds

	lag := obs.LastUpdate.Sub(obs.LastCheck).Hours()
	if lag > th.CheckLagHours {
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityError, NameLastChecked,
			"updated since last check: %.0f hours ago at %s, checked at %s",
			lag, stamp(obs.LastUpdate), stamp(obs.LastCheck))}
	}
	idle := env.Now.Sub(obs.LastUpdate).Hours()
	if idle > th.UncheckedHours {
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityWarning, NameLastChecked,
			"source has not been checked in %.0f hours at %s", idle, stamp(obs.LastCheck))}
	}
	return nil
}

// Checkers flags rows missing reviewer initials. Only the first missing
// field is reported.
func Checkers(obs domain.Observation, _ Env) []domain.Finding {
	switch {
	case strings.TrimSpace(obs.Checker) == "":
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityWarning, NameCheckers,
			"Missing checker initials")}
	case strings.TrimSpace(obs.DoubleChecker) == "":
		return []domain.Finding{domain.NewFinding(obs.State, domain.SeverityWarning, NameCheckers,
			"Missing double-checker initials")}
	}
	return nil
}

// PositivesRate flags an implausibly high share of positive results.
func PositivesRate(obs domain.Observation, env Env) []domain.Finding {
	tot := tested(obs)
	pct, over := exceeds(env.Thresholds.Positivity, obs.Positive, tot)
	if !over || obs.Positive <= env.Thresholds.Positivity.MinCount {
		return nil
	}
	return []domain.Finding{finding(obs, domain.SeverityError, NamePositivesRate,
		"Too many positive %.0f%% (positive=%d, total=%d)", pct, obs.Positive, tot)}
}

// DeathRate flags an implausibly high share of deaths.
func DeathRate(obs domain.Observation, env Env) []domain.Finding {
	tot := tested(obs)
	pct, over := exceeds(env.Thresholds.DeathRate, obs.Death, tot)
	if !over || obs.Death <= env.Thresholds.DeathRate.MinCount {
		return nil
	}
	return []domain.Finding{finding(obs, domain.SeverityError, NameDeathRate,
		"Too many deaths %.0f%% (death=%d, total=%d)", pct, obs.Death, tot)}
}

// LessRecoveredThanPositive flags more recoveries than cases.
func LessRecoveredThanPositive(obs domain.Observation, _ Env) []domain.Finding {
	if obs.Recovered <= obs.Positive {
		return nil
	}
	return []domain.Finding{finding(obs, domain.SeverityError, NameRecovered,
		"More recovered than positive (recovered=%d, positive=%d)", obs.Recovered, obs.Positive)}
}

// PendingRate flags a large backlog of pending results.
func PendingRate(obs domain.Observation, env Env) []domain.Finding {
	tot := tested(obs)
	pct, over := exceeds(env.Thresholds.PendingRate, obs.Pending, tot)
	if !over || obs.Pending <= env.Thresholds.PendingRate.MinCount {
		return nil
	}
	return []domain.Finding{finding(obs, domain.SeverityWarning, NamePendingRate,
		"Too many pending %.0f%% (pending=%d, total=%d)", pct, obs.Pending, tot)}
}

// tested is the rate denominator: resolved tests plus deaths.
func tested(obs domain.Observation) int64 {
	return obs.Positive + obs.Negative + obs.Death
}

// exceeds returns n as a percentage of tot and whether it is over the limit
// for tot's size class. A zero denominator reads as 0%.
func exceeds(limit RateLimit, n, tot int64) (float64, bool) {
	var pct float64
	if tot > 0 {
		pct = 100 * float64(n) / float64(tot)
	}
	maxPct := limit.Small
	if tot > limit.TotalAbove {
		maxPct = limit.Large
	}
	return pct, pct > maxPct
}

func stamp(t time.Time) string {
	return t.In(domain.Eastern()).Format(stampLayout)
}
