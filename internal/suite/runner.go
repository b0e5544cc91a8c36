// Package suite runs cases against a chat session, one after another, and
// collects a result for every case.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/chat"
)

type Runner struct {
	Session chat.Session
	Cases   []cases.Case

	// FailFast skips the remaining cases after the first non-pass.
	FailFast bool
	// Filter, when set, selects cases by name. Others are skipped.
	Filter *regexp.Regexp
	// OnResult is called after each case, skipped ones included.
	OnResult func(Result)
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

// Run logs in and runs every case. A login failure is returned as the error
// with every case marked skipped; case failures are only in the results.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	run := &Run{ID: uuid.NewString(), StartedAt: r.now()}
	slog.Info("run started", "id", run.ID, "cases", len(r.Cases))

	if err := r.Session.Login(ctx); err != nil {
		r.abort(run, err)
		return run, err
	}

	var stop error
	for i, c := range r.Cases {
		switch {
		case stop != nil:
			r.record(run, Result{Index: i, Case: c, Status: StatusSkipped, Err: stop})
			continue
		case r.Filter != nil && !r.Filter.MatchString(c.Name):
			r.record(run, Result{Index: i, Case: c, Status: StatusSkipped, Err: ErrFiltered})
			continue
		}

		if ctx.Err() != nil {
			stop = ctx.Err()
			r.record(run, Result{Index: i, Case: c, Status: StatusSkipped, Err: stop})
			continue
		}

		res := RunCase(ctx, r.Session, i, c, r.now)
		r.record(run, res)
		if res.Status != StatusPass && r.FailFast {
			stop = ErrFailFast
		}
	}

	run.Duration = r.now().Sub(run.StartedAt)
	counts := run.Counts()
	slog.Info("run finished", "id", run.ID,
		"pass", counts[StatusPass], "fail", counts[StatusFail],
		"error", counts[StatusError], "skipped", counts[StatusSkipped],
		"duration", run.Duration)
	return run, nil
}

// Aborted returns the run of cases whose session could not be opened.
func Aborted(cs []cases.Case, err error) *Run {
	r := &Runner{Cases: cs}
	run := &Run{ID: uuid.NewString(), StartedAt: r.now()}
	r.abort(run, err)
	return run
}

func (r *Runner) abort(run *Run, err error) {
	run.SetupErr = err
	for i, c := range r.Cases {
		r.record(run, Result{Index: i, Case: c, Status: StatusSkipped, Err: fmt.Errorf("setup: %w", err)})
	}
	run.Duration = r.now().Sub(run.StartedAt)
	slog.Error("run aborted", "id", run.ID, "err", err)
}

func (r *Runner) record(run *Run, res Result) {
	run.Results = append(run.Results, res)
	if r.OnResult != nil {
		r.OnResult(res)
	}
}

// RunCase asks one case on an already logged-in session. clock may be nil.
func RunCase(ctx context.Context, s chat.Session, index int, c cases.Case, clock func() time.Time) Result {
	if clock == nil {
		clock = time.Now
	}
	start := clock()
	actual, err := chat.Ask(ctx, s, c)
	res := Result{
		Index:    index,
		Case:     c,
		Status:   classify(err),
		Actual:   actual,
		Err:      err,
		Duration: clock().Sub(start),
	}

	switch res.Status {
	case StatusPass:
		slog.Info("case passed", "case", c.Name, "duration", res.Duration)
	case StatusFail:
		slog.Warn("case failed", "case", c.Name, "err", err)
	default:
		slog.Error("case error", "case", c.Name, "err", err)
	}
	return res
}
