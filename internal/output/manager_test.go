package output

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"repoguardian/internal/pipeline"
)

type recordingSink struct {
	writes   []any
	closes   int
	writeErr error
	closeErr error
}

func (s *recordingSink) Write(v any) error {
	s.writes = append(s.writes, v)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	s.closes++
	return s.closeErr
}

func newTestManager(t *testing.T, sinks ...Sink) *Manager {
	t.Helper()
	mgr := NewManager()
	for _, s := range sinks {
		if err := mgr.Add(s); err != nil {
			t.Fatalf("Add(%T) error: %v", s, err)
		}
	}
	return mgr
}

func TestManager(t *testing.T) {
	t.Run("writes to all sinks", func(t *testing.T) {
		a, b := &recordingSink{}, &recordingSink{}
		mgr := newTestManager(t, a, b)

		if err := mgr.Write(Event{Type: EventRunStarted}); err != nil {
			t.Fatalf("Write(run.started) error: %v", err)
		}
		if err := mgr.Write(&pipeline.Report{}); err != nil {
			t.Fatalf("Write(report) error: %v", err)
		}
		if err := mgr.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		for i, s := range []*recordingSink{a, b} {
			if got := len(s.writes); got != 2 {
				t.Fatalf("sink %d writes: want 2, got %d", i, got)
			}
		}
		if mgr.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", mgr.Len())
		}
	})

	t.Run("Add rejects nil", func(t *testing.T) {
		if err := NewManager().Add(nil); err == nil {
			t.Fatalf("Add(nil) want error, got nil")
		}
	})

	t.Run("Write aggregates sink errors", func(t *testing.T) {
		mgr := newTestManager(t,
			&recordingSink{writeErr: errors.New("boom-a")},
			&recordingSink{},
			&recordingSink{writeErr: errors.New("boom-b")},
		)

		err := mgr.Write("v")
		if err == nil {
			t.Fatalf("Write want error, got nil")
		}
		msg := err.Error()
		for _, want := range []string{"2 of 3 sinks failed to write", "boom-a", "boom-b", "recordingSink"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("Write error missing %q; got: %s", want, msg)
			}
		}
	})

	t.Run("Close aggregates sink errors and is idempotent", func(t *testing.T) {
		a := &recordingSink{closeErr: errors.New("close-a")}
		b := &recordingSink{}
		mgr := newTestManager(t, a, b)

		err := mgr.Close()
		if err == nil || !strings.Contains(err.Error(), "close-a") {
			t.Fatalf("Close() = %v, want close-a error", err)
		}
		if err := mgr.Close(); err != nil {
			t.Fatalf("second Close() = %v, want nil", err)
		}
		if a.closes != 1 || b.closes != 1 {
			t.Fatalf("closes: a=%d b=%d, want 1 each", a.closes, b.closes)
		}
	})

	t.Run("closed manager rejects writes", func(t *testing.T) {
		a := &recordingSink{}
		mgr := newTestManager(t, a)
		if err := mgr.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if err := mgr.Write("late"); !errors.Is(err, errManagerClosed) {
			t.Fatalf("Write after Close = %v, want errManagerClosed", err)
		}
		if err := mgr.Add(&recordingSink{}); !errors.Is(err, errManagerClosed) {
			t.Fatalf("Add after Close = %v, want errManagerClosed", err)
		}
		if len(a.writes) != 0 {
			t.Fatalf("sink saw %d writes after close", len(a.writes))
		}
	})

	t.Run("Observer writes stage.finished events", func(t *testing.T) {
		a := &recordingSink{}
		obs := newTestManager(t, a).Observer("octo/widgets")
		obs.StageStarted(context.Background(), "run-1", pipeline.StageSpec{Name: "fetch"})
		obs.StageFinished(context.Background(), "run-1", pipeline.Entry{Stage: "fetch", Required: true})

		if got := len(a.writes); got != 1 {
			t.Fatalf("writes: want 1, got %d", got)
		}
		e, ok := a.writes[0].(Event)
		if !ok {
			t.Fatalf("write type: want Event, got %T", a.writes[0])
		}
		if e.Type != EventStageFinished || e.Stage != "fetch" || e.RunID != "run-1" || e.Repo != "octo/widgets" {
			t.Fatalf("unexpected event: %+v", e)
		}
		if e.Entry == nil || !e.Entry.Required {
			t.Fatalf("event entry not carried: %+v", e.Entry)
		}
	})

	t.Run("Observer swallows sink errors", func(t *testing.T) {
		mgr := newTestManager(t, &recordingSink{writeErr: errors.New("boom")})
		mgr.Observer("r").StageFinished(context.Background(), "id", pipeline.Entry{Stage: "fetch"})
	})
}

func TestEmitSink_FlushesBufferedWriter(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	s, err := NewEmitSink(bw, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink() error: %v", err)
	}
	if err := s.Write(Event{Type: EventRunStarted, RunID: "r"}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"run.started"`) {
		t.Fatalf("event not flushed to underlying writer: %q", buf.String())
	}
}
