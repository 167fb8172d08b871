package domain

import (
	"time"
	_ "time/tzdata" // embed zoneinfo so Eastern resolves on minimal hosts

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

var eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("load America/New_York: " + err.Error())
	}
	return loc
}

// SetClock swaps the time source used for staleness and target-date logic.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current time source.
func Clock() clockwork.Clock { return clock }

// Eastern is the US/Eastern location all reporting timestamps are interpreted in.
func Eastern() *time.Location { return eastern }

// NowEastern returns the current instant in US/Eastern.
func NowEastern() time.Time {
	return clock.Now().In(eastern)
}

// StartOfDay returns midnight US/Eastern of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.In(eastern)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, eastern)
}

// DateKey encodes the Eastern calendar day of t as YYYYMMDD.
func DateKey(t time.Time) int {
	t = t.In(eastern)
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateFromKey decodes a YYYYMMDD key into midnight US/Eastern.
func DateFromKey(key int) time.Time {
	y, m, d := key/10000, (key/100)%100, key%100
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, eastern)
}

// DaysBetween returns the whole number of calendar days from a to b, which
// stays exact across DST transitions.
func DaysBetween(a, b time.Time) int {
	return int(civilUTC(b).Sub(civilUTC(a)).Hours() / 24)
}

func civilUTC(t time.Time) time.Time {
	t = t.In(eastern)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
