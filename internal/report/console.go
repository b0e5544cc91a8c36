package report

import (
	"fmt"
	"io"
	"time"

	"github.com/chatcheck/chatcheck/internal/suite"
)

// Console prints results the way go test -v does.
type Console struct {
	W io.Writer
}

func (c *Console) Report(run *suite.Run) error {
	if run.SetupErr != nil {
		fmt.Fprintf(c.W, "setup failed: %v\n", run.SetupErr)
	}
	for _, res := range run.Results {
		if err := c.writeResult(res); err != nil {
			return err
		}
	}

	counts := run.Counts()
	status := "ok  "
	if !run.Passed() {
		fmt.Fprintln(c.W, "FAIL")
		status = "FAIL"
	}
	_, err := fmt.Fprintf(c.W, "%s\tchatcheck\t%s\t(%d passed, %d failed, %d errors, %d skipped)\n",
		status, seconds(run.Duration),
		counts[suite.StatusPass], counts[suite.StatusFail], counts[suite.StatusError], counts[suite.StatusSkipped])
	return err
}

func (c *Console) writeResult(res suite.Result) error {
	if res.Status == suite.StatusSkipped {
		_, err := fmt.Fprintf(c.W, "--- SKIP: %s (0.00s)\n    %v\n", res.Case.Name, res.Err)
		return err
	}

	fmt.Fprintf(c.W, "=== RUN   %s\n", res.Case.Name)
	verdict := "PASS"
	if res.Status != suite.StatusPass {
		verdict = "FAIL"
	}
	fmt.Fprintf(c.W, "--- %s: %s (%s)\n", verdict, res.Case.Name, seconds(res.Duration))

	switch res.Status {
	case suite.StatusFail:
		fmt.Fprintf(c.W, "    %v\n", res.Err)
	case suite.StatusError:
		fmt.Fprintf(c.W, "    error: %v\n", res.Err)
	}
	return nil
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
