package suite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/chat"
	"github.com/chatcheck/chatcheck/internal/chat/chattest"
)

func stepClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func sampleCases() []cases.Case {
	return []cases.Case{
		{Name: "greeting", Input: "hello", Expected: "Hi"},
		{Name: "hours", Input: "when are you open?", Expected: "9am"},
		{Name: "farewell", Input: "bye", Expected: "Goodbye"},
	}
}

func botReplies() map[string]string {
	return map[string]string{
		"hello":              "Hi there! How can I help?",
		"when are you open?": "We are open 9am to 5pm.",
		"bye":                "Goodbye!",
	}
}

func TestRunAllPass(t *testing.T) {
	sess := &chattest.Session{Replies: botReplies()}
	r := &Runner{Session: sess, Cases: sampleCases(), Clock: stepClock(time.Second)}

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Results, 3)
	assert.NotEmpty(t, run.ID)
	assert.True(t, run.Passed())
	assert.Equal(t, 3, run.Counts()[StatusPass])
	assert.Equal(t, []string{"hello", "when are you open?", "bye"}, sess.Sent())
	assert.Equal(t, 1, sess.Logins())

	for i, res := range run.Results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, time.Second, res.Duration)
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, "Hi there! How can I help?", run.Results[0].Actual)
}

func TestRunKnownGoodAndMismatch(t *testing.T) {
	cs := []cases.Case{
		{Name: "known-good", Input: "hello", Expected: "Hi"},
		{Name: "mismatched", Input: "hello", Expected: "Goodbye"},
	}
	r := &Runner{Session: &chattest.Session{Replies: botReplies()}, Cases: cs}

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusPass, run.Results[0].Status)
	assert.Equal(t, StatusFail, run.Results[1].Status)

	var mm *cases.MismatchError
	require.ErrorAs(t, run.Results[1].Err, &mm)
	assert.Equal(t, "Hi there! How can I help?", mm.Actual)
	assert.False(t, run.Passed())
}

func TestRunReplyNotFoundIsError(t *testing.T) {
	cs := []cases.Case{{Name: "silent", Input: "anyone there?", Expected: "yes"}}
	r := &Runner{Session: &chattest.Session{Replies: botReplies()}, Cases: cs}

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusError, run.Results[0].Status)
	assert.ErrorIs(t, run.Results[0].Err, chat.ErrReplyNotFound)
}

func TestRunLoginFailureSkipsAll(t *testing.T) {
	sess := &chattest.Session{LoginErr: errors.New("bad password")}
	r := &Runner{Session: sess, Cases: sampleCases()}

	run, err := r.Run(context.Background())
	require.ErrorIs(t, err, chat.ErrLogin)
	require.NotNil(t, run)

	require.Len(t, run.Results, 3)
	for _, res := range run.Results {
		assert.Equal(t, StatusSkipped, res.Status)
		assert.ErrorIs(t, res.Err, chat.ErrLogin)
	}
	assert.Empty(t, sess.Sent())
	assert.False(t, run.Passed())
}

func TestRunFailFast(t *testing.T) {
	cs := sampleCases()
	cs[0].Expected = "nope"
	r := &Runner{Session: &chattest.Session{Replies: botReplies()}, Cases: cs, FailFast: true}

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Results, 3)
	assert.Equal(t, StatusFail, run.Results[0].Status)
	for _, res := range run.Results[1:] {
		assert.Equal(t, StatusSkipped, res.Status)
		assert.ErrorIs(t, res.Err, ErrFailFast)
	}
}

func TestRunFilter(t *testing.T) {
	sess := &chattest.Session{Replies: botReplies()}
	r := &Runner{Session: sess, Cases: sampleCases(), Filter: regexp.MustCompile("^greet")}

	run, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Results, 3)
	assert.Equal(t, StatusPass, run.Results[0].Status)
	assert.ErrorIs(t, run.Results[1].Err, ErrFiltered)
	assert.ErrorIs(t, run.Results[2].Err, ErrFiltered)
	assert.Equal(t, []string{"hello"}, sess.Sent())
	assert.True(t, run.Passed(), "filtered cases should not fail the run")
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var seen []Result
	r := &Runner{
		Session: &chattest.Session{Replies: botReplies()},
		Cases:   sampleCases(),
		OnResult: func(res Result) {
			seen = append(seen, res)
			cancel()
		},
	}

	run, err := r.Run(ctx)
	require.NoError(t, err)
	require.Len(t, run.Results, 3)
	assert.Len(t, seen, 3)
	assert.Equal(t, StatusPass, run.Results[0].Status)
	assert.ErrorIs(t, run.Results[2].Err, context.Canceled)
}

func TestResultCountMatchesCaseCount(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		cs := make([]cases.Case, n)
		for i := range cs {
			cs[i] = cases.Case{Name: "c", Input: "hello", Expected: "Hi"}
		}
		run, err := (&Runner{Session: &chattest.Session{Replies: botReplies()}, Cases: cs}).Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, run.Results, n)
	}
}

func TestAborted(t *testing.T) {
	cause := errors.New("chrome did not start")
	run := Aborted(sampleCases(), cause)

	require.Len(t, run.Results, 3)
	assert.ErrorIs(t, run.SetupErr, cause)
	assert.Equal(t, 3, run.Counts()[StatusSkipped])
	assert.False(t, run.Passed())
}
