package pipeline

import (
	"fmt"
	"strings"
	"time"
)

type RunState string

const (
	StateCompleted RunState = "completed"
	StateAborted   RunState = "aborted"
)

// Entry records one executed stage.
type Entry struct {
	Stage    string        `json:"stage"`
	Required bool          `json:"required"`
	Result   Result        `json:"result"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the ordered record of executed stages. Entries are always a
// prefix of the stage list in invocation order. A Report is not mutated
// after Run returns.
type Report struct {
	RunID      string    `json:"run_id"`
	Repository string    `json:"repository"`
	Entries    []Entry   `json:"entries"`
	State      RunState  `json:"state"`
	AbortedAt  string    `json:"aborted_at,omitempty"`
	Summary    string    `json:"summary"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summarizer is implemented by payloads that can stand in for the report's
// free-text summary. The last successful stage payload implementing it wins.
type Summarizer interface {
	SummaryText() string
}

func (r *Report) Entry(stage string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	for _, e := range r.Entries {
		if e.Stage == stage {
			return e, true
		}
	}
	return Entry{}, false
}

// Payload returns the successful payload recorded for stage.
func (r *Report) Payload(stage string) (any, bool) {
	e, ok := r.Entry(stage)
	if !ok || !e.Result.OK() {
		return nil, false
	}
	return e.Result.Payload, true
}

func (r *Report) Stages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Stage)
	}
	return out
}

func (r *Report) Failures() []Entry {
	if r == nil {
		return nil
	}
	var out []Entry
	for _, e := range r.Entries {
		if !e.Result.OK() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) Aborted() bool {
	return r != nil && r.State == StateAborted
}

func buildSummary(r *Report) string {
	for i := len(r.Entries) - 1; i >= 0; i-- {
		e := r.Entries[i]
		if !e.Result.OK() {
			continue
		}
		if s, ok := e.Result.Payload.(Summarizer); ok {
			if text := strings.TrimSpace(s.SummaryText()); text != "" {
				return text
			}
		}
	}

	if r.State == StateAborted {
		if e, ok := r.Entry(r.AbortedAt); ok && e.Result.Err != nil {
			return fmt.Sprintf("aborted at %s: %s", r.AbortedAt, e.Result.Err.Error())
		}
		return fmt.Sprintf("aborted at %s", r.AbortedAt)
	}

	failed := r.Failures()
	if len(failed) == 0 {
		return fmt.Sprintf("completed %d stages", len(r.Entries))
	}
	names := make([]string, 0, len(failed))
	for _, e := range failed {
		names = append(names, e.Stage)
	}
	return fmt.Sprintf("completed %d stages (%d failed: %s)", len(r.Entries), len(failed), strings.Join(names, ", "))
}
