package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/chatcheck/chatcheck/internal/cases"
	"github.com/chatcheck/chatcheck/internal/suite"
)

// Document is the JSON form of a run.
type Document struct {
	ID         string               `json:"id"`
	StartedAt  time.Time            `json:"startedAt"`
	DurationMs int64                `json:"durationMs"`
	Passed     bool                 `json:"passed"`
	SetupError string               `json:"setupError,omitempty"`
	Summary    map[suite.Status]int `json:"summary"`
	Results    []ResultDoc          `json:"results"`
}

type ResultDoc struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	Input      string          `json:"message_to_send"`
	Expected   string          `json:"expected_reply"`
	Match      cases.MatchMode `json:"match,omitempty"`
	Status     suite.Status    `json:"status"`
	Actual     string          `json:"actual,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

func NewDocument(run *suite.Run) Document {
	doc := Document{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		DurationMs: run.Duration.Milliseconds(),
		Passed:     run.Passed(),
		Summary:    run.Counts(),
		Results:    make([]ResultDoc, 0, len(run.Results)),
	}
	if run.SetupErr != nil {
		doc.SetupError = run.SetupErr.Error()
	}
	for _, res := range run.Results {
		rd := ResultDoc{
			Index:      res.Index + 1,
			Name:       res.Case.Name,
			Input:      res.Case.Input,
			Expected:   res.Case.Expected,
			Match:      res.Case.Match,
			Status:     res.Status,
			Actual:     res.Actual,
			DurationMs: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			rd.Error = res.Err.Error()
		}
		doc.Results = append(doc.Results, rd)
	}
	return doc
}

func WriteJSON(w io.Writer, run *suite.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(run))
}
