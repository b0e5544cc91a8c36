// Package report writes a finished run in the formats CI and people read:
// go test style console output, JSON, JUnit XML, Excel and Prometheus
// textfile metrics.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chatcheck/chatcheck/internal/suite"
)

type Reporter interface {
	Report(run *suite.Run) error
}

// Multi writes to every reporter and joins their errors.
type Multi []Reporter

func (m Multi) Report(run *suite.Run) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Files a format writes under the output directory.
const (
	JSONFile    = "chatcheck-report.json"
	JUnitFile   = "chatcheck-junit.xml"
	ExcelFile   = "chatcheck-report.xlsx"
	MetricsFile = "chatcheck.prom"
)

// Formats lists the names New accepts.
var Formats = []string{"console", "json", "junit", "xlsx", "metrics"}

// New builds the reporters for a comma-separated format list. File formats
// are written under dir; console goes to console.
func New(formats string, dir string, console *Console) (Multi, error) {
	var m Multi
	seen := map[string]bool{}
	for _, f := range strings.Split(formats, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		switch f {
		case "console":
			m = append(m, console)
		case "json":
			m = append(m, &File{Path: filepath.Join(dir, JSONFile), Encode: WriteJSON})
		case "junit":
			m = append(m, &File{Path: filepath.Join(dir, JUnitFile), Encode: WriteJUnit})
		case "xlsx", "excel":
			m = append(m, &Excel{Path: filepath.Join(dir, ExcelFile)})
		case "metrics", "prom":
			m = append(m, &Metrics{Path: filepath.Join(dir, MetricsFile)})
		default:
			return nil, fmt.Errorf("unknown report format %q (want one of %s)", f, strings.Join(Formats, ", "))
		}
	}
	return m, nil
}
