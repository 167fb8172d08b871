// Package resultlog collects findings during a check pass and consolidates
// them for presentation.
package resultlog

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

// Log is an append-only list of findings for one pass. It is not safe for
// concurrent use.
type Log struct {
	findings []domain.Finding
}

// New returns an empty Log.
func New() *Log { return &Log{} }

// Add appends findings in order.
func (l *Log) Add(fs ...domain.Finding) {
	l.findings = append(l.findings, fs...)
}

func (l *Log) Info(state, check, format string, args ...any) {
	l.Add(domain.NewFinding(state, domain.SeverityInfo, check, format, args...))
}

func (l *Log) Warning(state, check, format string, args ...any) {
	l.Add(domain.NewFinding(state, domain.SeverityWarning, check, format, args...))
}

func (l *Log) Error(state, check, format string, args ...any) {
	l.Add(domain.NewFinding(state, domain.SeverityError, check, format, args...))
}

// Internal records a fault raised while evaluating check, not a data problem.
func (l *Log) Internal(state, check, format string, args ...any) {
	l.Add(domain.NewFinding(state, domain.SeverityInternal, check, format, args...))
}

// Len returns the number of findings recorded.
func (l *Log) Len() int { return len(l.findings) }

// Report is a consolidated, presentation-ordered view of a Log.
type Report struct {
	Findings []domain.Finding        `json:"findings"`
	Counts   map[domain.Severity]int `json:"counts"`
}

// Consolidate orders findings by severity (most urgent first), then state,
// then insertion order. Nothing is dropped or deduplicated.
func (l *Log) Consolidate() Report {
	out := make([]domain.Finding, len(l.findings))
	copy(out, l.findings)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].State < out[j].State
	})

	counts := make(map[domain.Severity]int, len(domain.Severities))
	for _, s := range domain.Severities {
		counts[s] = 0
	}
	for _, f := range out {
		counts[f.Severity]++
	}
	return Report{Findings: out, Counts: counts}
}

// HasErrors reports whether any error or internal finding is present.
func (r Report) HasErrors() bool {
	return r.Counts[domain.SeverityError] > 0 || r.Counts[domain.SeverityInternal] > 0
}

// Total returns the number of findings.
func (r Report) Total() int { return len(r.Findings) }

// StateFindings is one state's slice of a Report.
type StateFindings struct {
	State    string
	Findings []domain.Finding
}

// ByState groups findings per state in state order. Within a state the
// report order is kept.
func (r Report) ByState() []StateFindings {
	idx := make(map[string]int)
	var groups []StateFindings
	for _, f := range r.Findings {
		i, ok := idx[f.State]
		if !ok {
			i = len(groups)
			idx[f.State] = i
			groups = append(groups, StateFindings{State: f.State})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].State < groups[j].State })
	return groups
}

// Summary renders the per-severity counts, most urgent first.
func (r Report) Summary() string {
	return fmt.Sprintf("%d internal, %d errors, %d warnings, %d info",
		r.Counts[domain.SeverityInternal], r.Counts[domain.SeverityError],
		r.Counts[domain.SeverityWarning], r.Counts[domain.SeverityInfo])
}
