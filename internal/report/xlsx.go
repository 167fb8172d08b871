package report

import (
	"fmt"
	"io"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
	"github.com/couchcryptid/covid-data-qc/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// WriteXLSX writes a workbook with a summary sheet and one findings sheet
// per view.
func WriteXLSX(w io.Writer, outcomes []*pipeline.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("name summary sheet: %w", err)
	}
	header := []any{"view", "target_date", "phase"}
	for _, s := range domain.Severities {
		header = append(header, string(s))
	}
	if err := setRow(f, summarySheet, 1, header); err != nil {
		return err
	}

	for i, o := range outcomes {
		row := []any{string(o.View), targetDate(o), string(o.Phase)}
		for _, s := range domain.Severities {
			row = append(row, o.Report.Counts[s])
		}
		if err := setRow(f, summarySheet, i+2, row); err != nil {
			return err
		}
		if err := writeFindingsSheet(f, o); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeFindingsSheet(f *excelize.File, o *pipeline.Outcome) error {
	sheet := string(o.View)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, []any{"state", "severity", "check", "message"}); err != nil {
		return err
	}
	for i, fd := range o.Report.Findings {
		if err := setRow(f, sheet, i+2, []any{fd.State, string(fd.Severity), fd.Check, fd.Message}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
