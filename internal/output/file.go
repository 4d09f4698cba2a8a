package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repoguardian/internal/pipeline"
)

// FileSink persists structured output to a file. The format is inferred
// from the extension when not given: .json writes the report, .ndjson and
// .jsonl stream events.
type FileSink struct {
	path string
	file *os.File
	emit *EmitSink
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if format == "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".json":
			format = "json"
		case ".ndjson", ".jsonl":
			format = "ndjson"
		default:
			return nil, fmt.Errorf("cannot infer output format from file extension %q", ext)
		}
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	emit, err := NewEmitSink(f, format)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileSink{path: path, file: f, emit: emit}, nil
}

func (s *FileSink) Write(v any) error {
	return s.emit.Write(v)
}

func (s *FileSink) Close() error {
	err := s.emit.Close()
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// WriteReport writes report to path as indented JSON, creating parent
// directories. File contents are never included.
func WriteReport(path string, report *pipeline.Report) error {
	if report == nil {
		return fmt.Errorf("report must not be nil")
	}
	f, err := createFile(path)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(report)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func createFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
