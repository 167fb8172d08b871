// Package domain models COVID-19 state-level case reports and the findings
// produced when checking them.
//
// # Data Source
//
// Figures are entered by volunteers on a shared "dev" worksheet (the working
// view), published through the public COVID Tracking API (the current view),
// and accumulated as one row per state per day (the history view). Every
// view is materialized in memory before any check runs.
//
// # Reporting Conventions
//
// Timestamps:
//
//	All "last update" and "last check" times are wall-clock US/Eastern, e.g.
//	"4/3/2020 17:00" or "4/3 17:00". Staleness is always judged against
//	NowEastern so the host time zone never matters.
//
// Dates:
//
//	History rows carry the date as an integer YYYYMMDD, e.g. 20200403.
//	Observation.Date is midnight US/Eastern of that day; see [DateKey].
//
// Totals:
//
//	total = positive + negative + pending. Rate checks use
//	positive + negative + death as the denominator instead, matching the
//	reviewer tracking sheet.
//
// Target date:
//
//	The date the working sheet is being filled in for. Before 08:00 ET the
//	previous day is still being worked on.
//
// # Findings
//
// A [Finding] is immutable. Severities rank internal > error > warning >
// info; internal means the check itself faulted for that state.
package domain
