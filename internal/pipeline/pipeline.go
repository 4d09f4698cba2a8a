// Package pipeline runs a fixed, ordered list of named stages over one
// Request and assembles a Report however far the run progressed.
//
// Stages run strictly in order on the calling goroutine. A failing required
// stage ends the run (the Report is a prefix of the stage list); a failing
// best-effort stage is recorded and the run continues. Stage failures never
// escape Run: returned errors and panics are both converted into Result
// failures.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// Operation is the work of one stage. It may read any prior stage's payload
// from state by name. A non-nil error marks the stage failed.
type Operation func(ctx context.Context, req Request, state State) (any, error)

// StageSpec declares one stage.
type StageSpec struct {
	Name     string
	Required bool
	Op       Operation
}

// Observer is notified around each stage. Implementations must not block.
type Observer interface {
	StageStarted(ctx context.Context, runID string, spec StageSpec)
	StageFinished(ctx context.Context, runID string, entry Entry)
}

type options struct {
	observer Observer
	now      func() time.Time
	runID    string
}

type Option func(*options)

func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		if now != nil {
			opts.now = now
		}
	}
}

func WithRunID(id string) Option {
	return func(opts *options) { opts.runID = strings.TrimSpace(id) }
}

// Run executes stages over req. The returned error is non-nil only when a
// precondition is violated (empty URL, empty or ambiguous stage list).
func Run(ctx context.Context, req Request, stages []StageSpec, opts ...Option) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(req.RepositoryURL()) == "" {
		return nil, ErrEmptyRepositoryURL
	}
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	seen := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		if _, dup := seen[st.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, st.Name)
		}
		seen[st.Name] = struct{}{}
	}

	o := options{now: time.Now}
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	log := clog.FromContext(ctx).With("run_id", o.runID, "repository", req.RepositoryURL())
	ctx = clog.WithLogger(ctx, log)

	report := &Report{
		RunID:      o.runID,
		Repository: req.RepositoryURL(),
		Entries:    make([]Entry, 0, len(stages)),
		StartedAt:  o.now(),
	}
	state := make(State, len(stages))

	for _, st := range stages {
		notify(func() {
			if o.observer != nil {
				o.observer.StageStarted(ctx, o.runID, st)
			}
		})
		log.Debugf("stage %s started", st.Name)

		start := o.now()
		payload, err := invoke(ctx, st, req, state)
		entry := Entry{
			Stage:    st.Name,
			Required: st.Required,
			Duration: o.now().Sub(start),
		}
		if err != nil {
			entry.Result = Failed(AsError(err))
		} else {
			entry.Result = Succeeded(payload)
		}
		report.Entries = append(report.Entries, entry)

		notify(func() {
			if o.observer != nil {
				o.observer.StageFinished(ctx, o.runID, entry)
			}
		})

		if !entry.Result.OK() {
			if st.Required {
				log.Warnf("stage %s failed (%s): %s; aborting", st.Name, entry.Result.Kind(), entry.Result.Err.Error())
				report.State = StateAborted
				report.AbortedAt = st.Name
				break
			}
			log.Warnf("stage %s failed (%s): %s; continuing", st.Name, entry.Result.Kind(), entry.Result.Err.Error())
			continue
		}

		log.Infof("stage %s succeeded in %s", st.Name, entry.Duration.Truncate(time.Millisecond))
		state[st.Name] = payload
	}

	if report.State == "" {
		report.State = StateCompleted
	}
	report.FinishedAt = o.now()
	report.Summary = buildSummary(report)
	return report, nil
}

func invoke(ctx context.Context, st StageSpec, req Request, state State) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = Failure(KindCollaborator, "stage %s panicked: %v", st.Name, r)
		}
	}()
	if st.Op == nil {
		return nil, Failure(KindCollaborator, "stage %s has no operation", st.Name)
	}
	return st.Op(ctx, req, state)
}

// notify runs an observer callback; a misbehaving observer cannot break a run.
func notify(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
