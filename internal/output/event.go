package output

import (
	"time"

	"repoguardian/internal/pipeline"
)

const (
	EventRunStarted    = "run.started"
	EventStageFinished = "stage.finished"
	EventRunFinished   = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// One analysis emits run.started, one stage.finished per executed stage and
// run.finished. The complete *pipeline.Report is written to the sinks between
// the last stage.finished and run.finished.
type Event struct {
	Type   string            `json:"type"`
	RunID  string            `json:"run_id,omitempty"`
	Repo   string            `json:"repo,omitempty"`
	Stages []string          `json:"stages,omitempty"`
	Stage  string            `json:"stage,omitempty"`
	Entry  *pipeline.Entry   `json:"entry,omitempty"`
	State  pipeline.RunState `json:"state,omitempty"`
	// Summary is set on run.finished.
	Summary  string    `json:"summary,omitempty"`
	ExitCode int       `json:"exit_code,omitempty"`
	Time     time.Time `json:"time"`
}

func eventFromEntry(runID, repo string, e pipeline.Entry) Event {
	return Event{
		Type:  EventStageFinished,
		RunID: runID,
		Repo:  repo,
		Stage: e.Stage,
		Entry: &e,
		Time:  time.Now(),
	}
}
