package output

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/pipeline"
)

// Sink is a destination for analysis events and reports.
type Sink interface {
	Write(v any) error
	Close() error
}

var errManagerClosed = errors.New("output manager is closed")

// Manager fans every value out to its sinks in registration order. A closed
// Manager rejects further writes; Close itself may be called more than once.
type Manager struct {
	mu     sync.Mutex
	sinks  []Sink
	closed bool
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Add(s Sink) error {
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errManagerClosed
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}

func (m *Manager) Write(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errManagerClosed
	}
	return m.each("write", func(s Sink) error { return s.Write(v) })
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.each("close", Sink.Close)
}

// each applies fn to every sink; one failing sink does not stop the others.
func (m *Manager) each(op string, fn func(Sink) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, fmt.Errorf("%s %T: %w", op, s, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d sinks failed to %s: %w", len(errs), len(m.sinks), op, errors.Join(errs...))
}

// Observer returns a pipeline.Observer that writes a stage.finished event
// for every executed stage. Sink errors are logged, never returned to the
// pipeline.
func (m *Manager) Observer(repo string) pipeline.Observer {
	return &managerObserver{m: m, repo: repo}
}

type managerObserver struct {
	m    *Manager
	repo string
}

func (o *managerObserver) StageStarted(ctx context.Context, runID string, spec pipeline.StageSpec) {
	clog.FromContext(ctx).Debugf("output: stage %s started (run %s)", spec.Name, runID)
}

func (o *managerObserver) StageFinished(ctx context.Context, runID string, entry pipeline.Entry) {
	if err := o.m.Write(eventFromEntry(runID, o.repo, entry)); err != nil {
		clog.FromContext(ctx).Warnf("output: %v", err)
	}
}
