// Package report renders check pass outcomes for people and downstream
// tools, and saves fit diagnostics.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
)

// ErrUnknownFormat is returned for an output format no writer handles.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects an output writer.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// Write renders outcomes to w in format. Nil outcomes, for unavailable
// views, are skipped. XLSX output is binary and must go to a file.
func Write(w io.Writer, format Format, outcomes []*pipeline.Outcome) error {
	present := make([]*pipeline.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o != nil {
			present = append(present, o)
		}
	}
	switch format {
	case FormatConsole:
		return WriteConsole(w, present)
	case FormatJSON:
		return WriteJSON(w, present)
	case FormatCSV:
		return WriteCSV(w, present)
	case FormatXLSX:
		return WriteXLSX(w, present)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

func targetDate(o *pipeline.Outcome) string {
	return o.TargetDate.Format(time.DateOnly)
}
