package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
)

// WriteJSON encodes outcomes as an indented JSON array.
func WriteJSON(w io.Writer, outcomes []*pipeline.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
