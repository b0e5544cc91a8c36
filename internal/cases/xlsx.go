package cases

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header aliases accepted in the first row of a workbook.
var xlsxColumns = map[string]string{
	"name":            "name",
	"case":            "name",
	"message_to_send": "input",
	"input":           "input",
	"message":         "input",
	"expected_reply":  "expected",
	"expected":        "expected",
	"match":           "match",
}

func loadXLSX(path, sheet string) ([]Case, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if key, ok := xlsxColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[key] = i
		}
	}
	for _, required := range []string{"input", "expected"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: sheet %q has no %s column", path, sheet, required)
		}
	}

	cell := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cs []Case
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cs = append(cs, Case{
			Name:     cell(row, "name"),
			Input:    cell(row, "input"),
			Expected: cell(row, "expected"),
			Match:    MatchMode(cell(row, "match")),
		})
	}
	return cs, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
