package suite

import (
	"errors"
	"time"

	"github.com/chatcheck/chatcheck/internal/cases"
)

type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

var (
	// ErrFiltered is the skip reason for cases excluded by Runner.Filter.
	ErrFiltered = errors.New("excluded by filter")
	// ErrFailFast is the skip reason for cases after the first non-pass
	// under Runner.FailFast.
	ErrFailFast = errors.New("skipped after earlier failure")
)

// Result is the outcome of one case. Err is nil only on pass.
type Result struct {
	Index    int
	Case     cases.Case
	Status   Status
	Actual   string
	Err      error
	Duration time.Duration
}

// Run is the outcome of one pass over the cases file. Results has exactly
// one entry per case, in file order.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
	// SetupErr is set when the session could not be established.
	SetupErr error
}

// Counts tallies results by status.
func (r *Run) Counts() map[Status]int {
	counts := map[Status]int{StatusPass: 0, StatusFail: 0, StatusError: 0, StatusSkipped: 0}
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// Passed reports whether setup succeeded and every case that ran passed.
// Cases skipped by a filter do not fail the run.
func (r *Run) Passed() bool {
	if r.SetupErr != nil {
		return false
	}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
		case StatusSkipped:
			if !errors.Is(res.Err, ErrFiltered) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func classify(err error) Status {
	var mm *cases.MismatchError
	switch {
	case err == nil:
		return StatusPass
	case errors.As(err, &mm):
		return StatusFail
	default:
		return StatusError
	}
}
