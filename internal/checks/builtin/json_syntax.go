package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"repoguardian/internal/checks"
)

type JSONSyntaxCheck struct{}

func (c *JSONSyntaxCheck) ID() string            { return "json-syntax" }
func (c *JSONSyntaxCheck) Title() string         { return "JSON Is Well-Formed" }
func (c *JSONSyntaxCheck) Kind() checks.Kind     { return checks.KindSyntax }
func (c *JSONSyntaxCheck) Applies(p string) bool { return checks.HasExt(p, ".json") }

func (c *JSONSyntaxCheck) Description() string {
	return "Decodes JSON files and reports the first syntax error with its line and column."
}

func (c *JSONSyntaxCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	if len(bytes.TrimSpace(f.Content)) == 0 {
		return checks.FailResult(f, c.ID(), "empty JSON document", checks.Issue{Line: 1, Column: 1, Text: "empty JSON document"}), nil
	}

	dec := json.NewDecoder(bytes.NewReader(f.Content))
	var v any
	err := dec.Decode(&v)
	if err == nil {
		// Trailing data after the first value is also a syntax error.
		if _, terr := dec.Token(); !errors.Is(terr, io.EOF) {
			off := dec.InputOffset()
			line, col := lineCol(f.Content, off)
			msg := "unexpected data after top-level value"
			return checks.FailResult(f, c.ID(), fmt.Sprintf("line %d: %s", line, msg), checks.Issue{Line: line, Column: col, Text: msg}), nil
		}
		return checks.PassResult(f, c.ID()), nil
	}

	off := dec.InputOffset()
	var se *json.SyntaxError
	if errors.As(err, &se) {
		off = se.Offset
	} else if errors.Is(err, io.ErrUnexpectedEOF) {
		off = int64(len(f.Content))
	}
	line, col := lineCol(f.Content, off)
	return checks.FailResult(f, c.ID(), fmt.Sprintf("line %d: %s", line, err.Error()), checks.Issue{Line: line, Column: col, Text: err.Error()}), nil
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(b []byte, off int64) (int, int) {
	if off > int64(len(b)) {
		off = int64(len(b))
	}
	if off < 0 {
		off = 0
	}
	prefix := b[:off]
	line := bytes.Count(prefix, []byte("\n")) + 1
	col := int(off) - bytes.LastIndexByte(prefix, '\n')
	return line, col
}

func init() {
	checks.Register(&JSONSyntaxCheck{})
}
