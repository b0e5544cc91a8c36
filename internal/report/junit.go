package report

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/suite"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string         `xml:"name,attr"`
	ID        string         `xml:"id,attr"`
	Tests     int            `xml:"tests,attr"`
	Failures  int            `xml:"failures,attr"`
	Errors    int            `xml:"errors,attr"`
	Skipped   int            `xml:"skipped,attr"`
	Time      string         `xml:"time,attr"`
	Timestamp string         `xml:"timestamp,attr"`
	Cases     []junitCase    `xml:"testcase"`
	SystemErr *junitCharData `xml:"system-err,omitempty"`
}

type junitCase struct {
	Name      string         `xml:"name,attr"`
	Classname string         `xml:"classname,attr"`
	Time      string         `xml:"time,attr"`
	Failure   *junitProblem  `xml:"failure,omitempty"`
	Error     *junitProblem  `xml:"error,omitempty"`
	Skipped   *junitProblem  `xml:"skipped,omitempty"`
	SystemOut *junitCharData `xml:"system-out,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr,omitempty"`
	Body    string `xml:",chardata"`
}

type junitCharData struct {
	Body string `xml:",chardata"`
}

func WriteJUnit(w io.Writer, run *suite.Run) error {
	counts := run.Counts()
	s := junitSuite{
		Name:      "chatcheck",
		ID:        run.ID,
		Tests:     len(run.Results),
		Failures:  counts[suite.StatusFail],
		Errors:    counts[suite.StatusError],
		Skipped:   counts[suite.StatusSkipped],
		Time:      junitTime(run.Duration),
		Timestamp: run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.SetupErr != nil {
		s.SystemErr = &junitCharData{Body: run.SetupErr.Error()}
	}

	for _, res := range run.Results {
		tc := junitCase{Name: res.Case.Name, Classname: "chatcheck", Time: junitTime(res.Duration)}
		if res.Actual != "" {
			tc.SystemOut = &junitCharData{Body: res.Actual}
		}
		switch res.Status {
		case suite.StatusFail:
			tc.Failure = &junitProblem{Message: res.Err.Error(), Type: "mismatch", Body: failureBody(res)}
		case suite.StatusError:
			tc.Error = &junitProblem{Message: res.Err.Error(), Type: "error"}
		case suite.StatusSkipped:
			tc.Skipped = &junitProblem{Message: res.Err.Error()}
		}
		s.Cases = append(s.Cases, tc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(junitSuites{Suites: []junitSuite{s}}); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func failureBody(res suite.Result) string {
	var mm *cases.MismatchError
	if errors.As(res.Err, &mm) {
		return fmt.Sprintf("input: %s\nexpected (%s): %s\nactual: %s", res.Case.Input, matchMode(res.Case), res.Case.Expected, mm.Actual)
	}
	return res.Err.Error()
}

func matchMode(c cases.Case) cases.MatchMode {
	if c.Match == "" {
		return cases.MatchContains
	}
	return c.Match
}

func junitTime(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
