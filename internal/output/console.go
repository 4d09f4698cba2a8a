package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"repoguardian/internal/pipeline"
)

var (
	okLabel   = color.New(color.FgGreen, color.Bold)
	failLabel = color.New(color.FgRed, color.Bold)
	warnLabel = color.New(color.FgYellow, color.Bold)
	skipLabel = color.New(color.Faint)
)

// ConsoleSink prints analysis progress to a terminal.
//
// Formats:
//   - text: one colored line per stage, then the summary
//   - json: the whole report on Close
//   - ndjson: lifecycle events as they happen
type ConsoleSink struct {
	writer io.Writer
	format string // "text", "json", "ndjson"
	mu     sync.Mutex
	emit   *EmitSink
	stages []string
}

func NewConsoleSink(w io.Writer, format string) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	s := &ConsoleSink{writer: w, format: format}
	switch format {
	case "text":
	case "json", "ndjson":
		emit, err := NewEmitSink(w, format)
		if err != nil {
			return nil, err
		}
		s.emit = emit
	default:
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return s, nil
}

func (s *ConsoleSink) Write(v any) error {
	if s.emit != nil {
		return s.emit.Write(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeText(v)
}

func (s *ConsoleSink) writeText(v any) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(s.writer, format, args...)
		}
	}

	switch t := v.(type) {
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.stages = t.Stages
			printf("Analyzing %s (run %s)\n", t.Repo, t.RunID)
		case EventStageFinished:
			if t.Entry == nil {
				return nil
			}
			label := okLabel
			if !t.Entry.Result.OK() {
				label = failLabel
				if !t.Entry.Required {
					label = warnLabel
				}
			}
			printf("%s %s (%s)", label.Sprintf("[%s]", stageStatus(*t.Entry)), t.Stage, formatDuration(t.Entry.Duration))
			if d := stageDetail(*t.Entry); d != "" {
				printf(" - %s", d)
			}
			printf("\n")
		}
	case *pipeline.Report:
		if t == nil {
			return nil
		}
		for _, name := range notRun(t, s.stages) {
			printf("%s %s\n", skipLabel.Sprint("[SKIP]"), name)
		}
		if sec := sectionsOf(t); sec.validation != nil {
			printf("\n%s\n", sec.validation.Stats)
		}
		if summary := strings.TrimSpace(t.Summary); summary != "" {
			printf("\n%s\n", summary)
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}
	return flush(s.writer)
}

func (s *ConsoleSink) Close() error {
	if s.emit != nil {
		return s.emit.Close()
	}
	return nil
}
