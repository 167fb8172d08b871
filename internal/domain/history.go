package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrDuplicateDate reports a second observation for the same state and date.
	ErrDuplicateDate = errors.New("duplicate observation for date")

	// ErrMixedStates reports a series built from more than one state's rows.
	ErrMixedStates = errors.New("series contains more than one state")
)

// HistorySeries holds one state's observations, exactly one per date.
type HistorySeries struct {
	state string
	asc   []Observation
}

// NewHistorySeries validates and sorts obs for state.
func NewHistorySeries(state string, obs []Observation) (HistorySeries, error) {
	asc := make([]Observation, len(obs))
	copy(asc, obs)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Date.Before(asc[j].Date) })

	seen := make(map[int]struct{}, len(asc))
	for _, o := range asc {
		if o.State != state {
			return HistorySeries{}, fmt.Errorf("%w: expected %s, got %s", ErrMixedStates, state, o.State)
		}
		key := o.DateKey()
		if _, dup := seen[key]; dup {
			return HistorySeries{}, fmt.Errorf("%w: %s %d", ErrDuplicateDate, state, key)
		}
		seen[key] = struct{}{}
	}
	return HistorySeries{state: state, asc: asc}, nil
}

// GroupByState splits a history table into per-state series. States are
// returned in sorted order.
func GroupByState(rows []Observation) ([]string, map[string][]Observation) {
	byState := make(map[string][]Observation)
	for _, r := range rows {
		byState[r.State] = append(byState[r.State], r)
	}
	states := make([]string, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Strings(states)
	return states, byState
}

// State returns the series' state code.
func (h HistorySeries) State() string { return h.state }

// Len returns the number of observations.
func (h HistorySeries) Len() int { return len(h.asc) }

// Ascending returns the observations oldest first.
func (h HistorySeries) Ascending() []Observation {
	out := make([]Observation, len(h.asc))
	copy(out, h.asc)
	return out
}

// Descending returns the observations newest first.
func (h HistorySeries) Descending() []Observation {
	out := make([]Observation, len(h.asc))
	for i, o := range h.asc {
		out[len(h.asc)-1-i] = o
	}
	return out
}

// Before returns the history slice strictly before target's calendar day,
// newest first.
func (h HistorySeries) Before(target time.Time) []Observation {
	cutoff := DateKey(target)
	var out []Observation
	for i := len(h.asc) - 1; i >= 0; i-- {
		if h.asc[i].DateKey() < cutoff {
			out = append(out, h.asc[i])
		}
	}
	return out
}
