package domain

import (
	"errors"
	"time"
)

// ErrViewUnavailable is returned by a data source when a named view
// (working, current, history) is not present.
var ErrViewUnavailable = errors.New("view unavailable")

// View names the three tables a data source exposes.
type View string

const (
	ViewWorking View = "working" // in-progress entries on the dev sheet
	ViewCurrent View = "current" // published entries
	ViewHistory View = "history" // one row per state per date
)

// Views lists every view in the order a full run checks them.
var Views = []View{ViewWorking, ViewCurrent, ViewHistory}

// Phase is the stage of the human review process a check pass runs in.
type Phase string

const (
	PhaseWorking Phase = "working"
	PhasePublish Phase = "publish"
)

// Observation is one state's figures for one date. It is read fresh each
// run and never mutated afterwards.
type Observation struct {
	State        string    `json:"state"`
	Date         time.Time `json:"date"` // midnight US/Eastern
	Positive     int64     `json:"positive"`
	Negative     int64     `json:"negative"`
	Pending      int64     `json:"pending"`
	Death        int64     `json:"death"`
	Recovered    int64     `json:"recovered"`
	Hospitalized int64     `json:"hospitalized"`
	Total        int64     `json:"total"`

	LastUpdate time.Time `json:"last_update"`
	LastCheck  time.Time `json:"last_check"`

	Checker       string `json:"checker,omitempty"`
	DoubleChecker string `json:"double_checker,omitempty"`
}

// Column identifies a numeric Observation field.
type Column string

const (
	ColPositive     Column = "positive"
	ColNegative     Column = "negative"
	ColPending      Column = "pending"
	ColDeath        Column = "death"
	ColRecovered    Column = "recovered"
	ColHospitalized Column = "hospitalized"
	ColTotal        Column = "total"
)

// Value returns the column's value for obs. Unknown columns read as zero.
func (c Column) Value(obs Observation) int64 {
	switch c {
	case ColPositive:
		return obs.Positive
	case ColNegative:
		return obs.Negative
	case ColPending:
		return obs.Pending
	case ColDeath:
		return obs.Death
	case ColRecovered:
		return obs.Recovered
	case ColHospitalized:
		return obs.Hospitalized
	case ColTotal:
		return obs.Total
	default:
		return 0
	}
}

// DateKey returns the observation date as YYYYMMDD.
func (o Observation) DateKey() int { return DateKey(o.Date) }
