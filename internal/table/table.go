// Package table converts spreadsheet-style value grids into observations.
// Both the Google Sheets and workbook readers return rows of strings; this
// package owns header handling, column aliases, and value parsing.
package table

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

var (
	// ErrNoHeader is returned for a grid with fewer rows than header rows.
	ErrNoHeader = errors.New("table has no header")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("required column missing")
)

// field names the Observation attribute a column maps onto.
type field int

const (
	fieldState field = iota
	fieldDate
	fieldPositive
	fieldNegative
	fieldPending
	fieldDeath
	fieldRecovered
	fieldHospitalized
	fieldTotal
	fieldLastUpdate
	fieldLastCheck
	fieldChecker
	fieldDoubleChecker
)

// aliases maps normalized header text to a field. Working-sheet headers
// are two rows merged, e.g. "Tests" over "Positive" reads "Tests Positive".
var aliases = map[string]field{
	"state": fieldState,

	"date": fieldDate,

	"positive":      fieldPositive,
	"testspositive": fieldPositive,
	"casespositive": fieldPositive,

	"negative":      fieldNegative,
	"testsnegative": fieldNegative,

	"pending":      fieldPending,
	"testspending": fieldPending,

	"death":          fieldDeath,
	"deaths":         fieldDeath,
	"outcomesdeath":  fieldDeath,
	"outcomesdeaths": fieldDeath,

	"recovered":         fieldRecovered,
	"outcomesrecovered": fieldRecovered,

	"hospitalized":           fieldHospitalized,
	"hospitalizedcumulative": fieldHospitalized,
	"outcomeshospitalized":   fieldHospitalized,

	"total":            fieldTotal,
	"teststotal":       fieldTotal,
	"totaltestresults": fieldTotal,

	"lastupdate":   fieldLastUpdate,
	"lastupdateet": fieldLastUpdate,
	"lastupdated":  fieldLastUpdate,

	"lastcheck":     fieldLastCheck,
	"lastchecket":   fieldLastCheck,
	"lastchecked":   fieldLastCheck,
	"lastcheckedet": fieldLastCheck,

	"checker":         fieldChecker,
	"checkerinitials": fieldChecker,

	"doublechecker":         fieldDoubleChecker,
	"doublecheckerinitials": fieldDoubleChecker,
}

// Table is a header plus data rows. Short rows read missing cells as blank.
type Table struct {
	Header []string
	Rows   [][]string

	sub []string // second header row, when merged
}

// FromValues splits a value grid into header and data rows. With two header
// rows, a non-blank cell in the first row prefixes every following
// second-row cell until the next non-blank cell or the end of the first
// row. Empty rows are dropped.
func FromValues(values [][]string, headerRows int) (Table, error) {
	if headerRows < 1 {
		headerRows = 1
	}
	if len(values) < headerRows {
		return Table{}, ErrNoHeader
	}

	var t Table
	switch headerRows {
	case 1:
		t.Header = trimAll(values[0])
	default:
		t.Header = mergeHeader(values[0], values[1])
		t.sub = trimAll(values[1])
	}

	for _, r := range values[headerRows:] {
		if len(r) == 0 {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

func mergeHeader(top, sub []string) []string {
	out := make([]string, len(sub))
	prefix := ""
	for i, s := range sub {
		if i < len(top) {
			if p := strings.TrimSpace(top[i]); p != "" {
				prefix = p + " "
			}
		} else {
			prefix = ""
		}
		out[i] = prefix + strings.TrimSpace(s)
	}
	return out
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// normalize lowercases s and drops everything but letters and digits.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// columns resolves each known field to its first matching header index.
// A merged header that matches no alias falls back to its second-row text.
func (t Table) columns() map[field]int {
	idx := make(map[field]int)
	for i, h := range t.Header {
		f, ok := aliases[normalize(h)]
		if !ok && i < len(t.sub) {
			f, ok = aliases[normalize(t.sub[i])]
		}
		if !ok {
			continue
		}
		if _, seen := idx[f]; !seen {
			idx[f] = i
		}
	}
	return idx
}

// Observations parses every data row. Rows with a blank state are skipped.
// The state column is required; other columns read as zero when absent.
func (t Table) Observations() ([]domain.Observation, error) {
	cols := t.columns()
	if _, ok := cols[fieldState]; !ok {
		return nil, fmt.Errorf("%w: state", ErrMissingColumn)
	}

	out := make([]domain.Observation, 0, len(t.Rows))
	for n, r := range t.Rows {
		cell := func(f field) string {
			i, ok := cols[f]
			if !ok || i >= len(r) {
				return ""
			}
			return strings.TrimSpace(r[i])
		}

		state := strings.ToUpper(cell(fieldState))
		if state == "" {
			continue
		}
		obs, err := parseRow(state, cell)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", n+1, state, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func parseRow(state string, cell func(field) string) (domain.Observation, error) {
	obs := domain.Observation{
		State:         state,
		Checker:       cell(fieldChecker),
		DoubleChecker: cell(fieldDoubleChecker),
	}

	counts := []struct {
		f    field
		name string
		dst  *int64
	}{
		{fieldPositive, "positive", &obs.Positive},
		{fieldNegative, "negative", &obs.Negative},
		{fieldPending, "pending", &obs.Pending},
		{fieldDeath, "death", &obs.Death},
		{fieldRecovered, "recovered", &obs.Recovered},
		{fieldHospitalized, "hospitalized", &obs.Hospitalized},
		{fieldTotal, "total", &obs.Total},
	}
	for _, c := range counts {
		v, err := ParseCount(cell(c.f))
		if err != nil {
			return domain.Observation{}, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = v
	}

	var err error
	if s := cell(fieldDate); s != "" {
		if obs.Date, err = ParseDate(s); err != nil {
			return domain.Observation{}, fmt.Errorf("date: %w", err)
		}
	}
	if s := cell(fieldLastUpdate); s != "" {
		if obs.LastUpdate, err = ParseTimestamp(s); err != nil {
			return domain.Observation{}, fmt.Errorf("last update: %w", err)
		}
	}
	if s := cell(fieldLastCheck); s != "" {
		if obs.LastCheck, err = ParseTimestamp(s); err != nil {
			return domain.Observation{}, fmt.Errorf("last check: %w", err)
		}
	}
	return obs, nil
}
