package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
)

// WriteConsole prints each pass grouped by state, most urgent first.
func WriteConsole(w io.Writer, outcomes []*pipeline.Outcome) error {
	bw := bufio.NewWriter(w)
	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "== %s checks for %s (%s) ==\n", o.View, targetDate(o), o.Phase)
		groups := o.Report.ByState()
		if len(groups) == 0 {
			fmt.Fprintln(bw, "no findings")
		}
		for _, g := range groups {
			fmt.Fprintln(bw, g.State)
			for _, f := range g.Findings {
				fmt.Fprintf(bw, "  [%s] %s: %s\n", f.Severity, f.Check, f.Message)
			}
		}
		fmt.Fprintln(bw, o.Report.Summary())
	}
	return bw.Flush()
}
