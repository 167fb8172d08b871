package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

// fitFileName is STATE_YYYYMMDD with the given extension.
func fitFileName(fit domain.FitResult, ext string) string {
	return fmt.Sprintf("%s_%d%s", fit.State, domain.DateKey(fit.TargetDate), ext)
}

// SaveFits writes each fit as JSON under dir/<view>/ and returns the
// paths written.
func SaveFits(dir string, view domain.View, fits []domain.FitResult) ([]string, error) {
	if len(fits) == 0 {
		return nil, nil
	}
	out := filepath.Join(dir, string(view))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	paths := make([]string, 0, len(fits))
	for _, fit := range fits {
		data, err := json.MarshalIndent(fit, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode fit %s: %w", fit.State, err)
		}
		path := filepath.Join(out, fitFileName(fit, ".json"))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write fit %s: %w", fit.State, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
