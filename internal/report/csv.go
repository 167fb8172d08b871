package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
)

var findingHeader = []string{"view", "target_date", "phase", "state", "severity", "check", "message"}

// WriteCSV writes one row per finding across all outcomes.
func WriteCSV(w io.Writer, outcomes []*pipeline.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(findingHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range findingRows(outcomes) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func findingRows(outcomes []*pipeline.Outcome) [][]string {
	var rows [][]string
	for _, o := range outcomes {
		for _, f := range o.Report.Findings {
			rows = append(rows, []string{
				string(o.View), targetDate(o), string(o.Phase),
				f.State, string(f.Severity), f.Check, f.Message,
			})
		}
	}
	return rows
}
