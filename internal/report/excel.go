package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/chatcheck/chatcheck/internal/suite"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"

	failBgColor = "FF5900"
	skipBgColor = "FFEB9C"
)

var excelHeaders = []any{
	"#", "Name", "Message", "Expected", "Match", "Status", "Actual", "Error", "Duration (s)",
}

var excelWidths = []float64{6, 20, 36, 36, 10, 10, 48, 48, 12}

// Excel writes a workbook with a Results sheet, failed rows in red and
// skipped rows in yellow, and a Summary sheet.
type Excel struct {
	Path string
}

func (e *Excel) Report(run *suite.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("excel: %w", err)
	}
	if err := writeResultsSheet(f, run); err != nil {
		return fmt.Errorf("excel: %w", err)
	}
	if err := writeSummarySheet(f, run); err != nil {
		return fmt.Errorf("excel: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.Path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := f.SaveAs(e.Path); err != nil {
		return fmt.Errorf("save %s: %w", e.Path, err)
	}
	slog.Info("report written", "path", e.Path)
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
}

func writeResultsSheet(f *excelize.File, run *suite.Run) error {
	failStyle, err := fillStyle(f, failBgColor)
	if err != nil {
		return err
	}
	skipStyle, err := fillStyle(f, skipBgColor)
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, w := range excelWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ResultsSheet, col, col, w); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &excelHeaders); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(excelHeaders))
	if err := f.SetCellStyle(ResultsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, res := range run.Results {
		row := i + 2
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		cells := []any{
			res.Index + 1,
			res.Case.Name,
			res.Case.Input,
			res.Case.Expected,
			string(matchMode(res.Case)),
			string(res.Status),
			res.Actual,
			errText,
			res.Duration.Seconds(),
		}
		first := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(ResultsSheet, first, &cells); err != nil {
			return err
		}

		last := fmt.Sprintf("%s%d", lastCol, row)
		switch res.Status {
		case suite.StatusFail, suite.StatusError:
			err = f.SetCellStyle(ResultsSheet, first, last, failStyle)
		case suite.StatusSkipped:
			err = f.SetCellStyle(ResultsSheet, first, last, skipStyle)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, run *suite.Run) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	counts := run.Counts()
	verdict := "PASS"
	if !run.Passed() {
		verdict = "FAIL"
	}
	setupErr := ""
	if run.SetupErr != nil {
		setupErr = run.SetupErr.Error()
	}

	rows := [][]any{
		{"Run ID", run.ID},
		{"Started", run.StartedAt.Format(time.RFC3339)},
		{"Duration (s)", run.Duration.Seconds()},
		{"Result", verdict},
		{"Total", len(run.Results)},
		{"Passed", counts[suite.StatusPass]},
		{"Failed", counts[suite.StatusFail]},
		{"Errors", counts[suite.StatusError]},
		{"Skipped", counts[suite.StatusSkipped]},
	}
	if setupErr != "" {
		rows = append(rows, []any{"Setup error", setupErr})
	}
	for i, row := range rows {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 14)
}
