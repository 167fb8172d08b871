package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

// ErrBadValue wraps cells that cannot be parsed.
var ErrBadValue = errors.New("unparsable value")

// Timestamp layouts accepted for last-update and last-check cells, tried in
// order. Layouts without a zone are read as US/Eastern.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
}

// yearless layouts carry month and day only; the year is taken from the
// current clock.
var yearlessLayouts = []string{
	"1/2 15:04",
	"01/02 15:04",
}

var dateLayouts = []string{
	"20060102",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
}

// ParseCount reads a cumulative count. Blank cells and dashes read as zero;
// thousands separators are accepted. Fractional values are truncated toward
// zero.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || strings.EqualFold(s, "N/A") {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadValue, s)
	}
	return int64(f), nil
}

// ParseDate reads a calendar date as midnight US/Eastern.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, domain.Eastern()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrBadValue, s)
}

// ParseTimestamp reads a wall-clock timestamp, normalized to US/Eastern.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, domain.Eastern()); err == nil {
			return t.In(domain.Eastern()), nil
		}
	}
	for _, layout := range yearlessLayouts {
		t, err := time.ParseInLocation(layout, s, domain.Eastern())
		if err != nil {
			continue
		}
		year := domain.NowEastern().Year()
		return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, domain.Eastern()), nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrBadValue, s)
}
