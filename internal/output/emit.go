package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"repoguardian/internal/pipeline"
)

// EmitSink writes structured output to a writer.
//
// Formats:
//   - json: keeps the last *pipeline.Report and writes it indented on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer io.Writer
	format string // "json" | "ndjson"
	mu     sync.Mutex
	report *pipeline.Report
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := v.(*pipeline.Report); ok && r != nil {
			s.report = r
		}
		// Lifecycle events are ignored in aggregate mode.
		return nil
	case "ndjson":
		e, ok := v.(Event)
		if !ok {
			return nil
		}
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flush(s.writer)
	default:
		return fmt.Errorf("unsupported emit format: %s", s.format)
	}
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" || s.report == nil {
		return nil
	}
	encoder := json.NewEncoder(s.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.report); err != nil {
		return err
	}
	return flush(s.writer)
}

// flush pushes buffered output (bufio.Writer and friends) after each
// record so NDJSON consumers see events as stages finish.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
