package checks

import (
	"strconv"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

var (
	growthColumns    = []domain.Column{domain.ColPositive, domain.ColNegative, domain.ColDeath, domain.ColTotal}
	monotonicColumns = []domain.Column{domain.ColPositive, domain.ColNegative, domain.ColHospitalized, domain.ColDeath}
)

// IncreasingValues compares each cumulative column with the most recent
// prior observation in env.Prior. It reports whether the positive count
// changed, which gates the trend forecast. With no prior history the
// previous value reads as zero and changed is false.
func IncreasingValues(obs domain.Observation, env Env) (findings []domain.Finding, changed bool) {
	th := env.Thresholds
	var prior *domain.Observation
	if len(env.Prior) > 0 {
		prior = &env.Prior[0]
	}

	for _, col := range growthColumns {
		val := col.Value(obs)
		var prev int64
		if prior != nil {
			prev = col.Value(*prior)
		}

		if val < prev {
			findings = append(findings, finding(obs, domain.SeverityError, NameIncreasingValues,
				"%s value (%d) is less than prior value (%d)", col, val, prev))
		}
		if val < th.IgnoreBelow[col] {
			continue
		}

		if val == prev {
			findings = append(findings, unchanged(obs, col, val, env))
			continue
		}
		if prev == 0 {
			continue
		}

		growth := 100*float64(val)/float64(prev) - 100
		band := th.ExpectedGrowth[col]
		if growth < band.Min || growth > band.Max {
			findings = append(findings, finding(obs, domain.SeverityWarning, NameIncreasingValues,
				"%s value (%d) is a %.0f%% increase, expected: %.0f to %.0f%%", col, val, growth, band.Min, band.Max))
		}
	}

	if prior != nil {
		changed = obs.Positive != prior.Positive
	}
	return findings, changed
}

// unchanged reports how long val has been flat in env.Prior.
func unchanged(obs domain.Observation, col domain.Column, val int64, env Env) domain.Finding {
	for i, p := range env.Prior {
		if col.Value(p) == val {
			continue
		}
		sev := domain.SeverityWarning
		if col.Value(env.Prior[0]) > env.Thresholds.UnchangedErrorAbove {
			sev = domain.SeverityError
		}
		return finding(obs, sev, NameIncreasingValues,
			"%s value (%d) has not changed since %s (%d days)", col, val, p.Date.Format("01/02"), i+1)
	}
	return finding(obs, domain.SeverityError, NameIncreasingValues, "%s value (%d) constant for all time", col, val)
}

// Monotonic checks a state's full history for cumulative counts that fall
// from one date to the next. Each (column, date) decrease is one error.
func Monotonic(series domain.HistorySeries) []domain.Finding {
	asc := series.Ascending()
	var findings []domain.Finding
	for _, col := range monotonicColumns {
		for i := 1; i < len(asc); i++ {
			prev, cur := col.Value(asc[i-1]), col.Value(asc[i])
			if cur >= prev {
				continue
			}
			findings = append(findings, domain.NewFinding(series.State(), domain.SeverityError, NameMonotonic,
				"%s values decreased from the previous day (on %s)", col, strconv.Itoa(asc[i].DateKey())))
		}
	}
	return findings
}
