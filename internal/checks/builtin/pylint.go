package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"repoguardian/internal/checks"
)

type pylintMessage struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	MessageID string `json:"message-id"`
	Symbol    string `json:"symbol"`
	Message   string `json:"message"`
}

type PylintCheck struct {
	pythonOption
}

func (c *PylintCheck) ID() string            { return "pylint" }
func (c *PylintCheck) Title() string         { return "pylint Reports No Messages" }
func (c *PylintCheck) Kind() checks.Kind     { return checks.KindLint }
func (c *PylintCheck) Applies(p string) bool { return checks.HasExt(p, ".py") }

func (c *PylintCheck) Description() string {
	return "Runs pylint with JSON output over Python files. Skipped when pylint is not installed for the configured interpreter."
}

func (c *PylintCheck) Options() []checks.Option {
	return []checks.Option{{Name: "python", Description: c.description(), Default: defaultPython}}
}

func (c *PylintCheck) Configure(opts map[string]string) error {
	return c.configure(opts)
}

func (c *PylintCheck) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	out, err := runPython(ctx, c.interpreter(), f.Content,
		"-m", "pylint", "--output-format=json", "--score=n", "--from-stdin", f.Path)
	if errors.Is(err, errToolMissing) {
		return checks.SkippedResult(f, c.ID(), err.Error()), nil
	}
	if err != nil {
		return checks.Result{}, err
	}

	body := bytes.TrimSpace(out.stdout)
	if len(body) == 0 {
		if out.exitCode != 0 {
			return checks.ErrorResult(f, c.ID(), fmt.Sprintf("pylint exited %d: %s", out.exitCode, lastLine(out.stderr))), nil
		}
		return checks.PassResult(f, c.ID()), nil
	}

	var msgs []pylintMessage
	if err := json.Unmarshal(body, &msgs); err != nil {
		return checks.ErrorResult(f, c.ID(), fmt.Sprintf("unreadable pylint output: %v", err)), nil
	}
	if len(msgs) == 0 {
		return checks.PassResult(f, c.ID()), nil
	}
	issues := make([]checks.Issue, 0, len(msgs))
	for _, m := range msgs {
		text := m.Message
		if m.Symbol != "" {
			text = fmt.Sprintf("%s (%s)", m.Message, m.Symbol)
		}
		issues = append(issues, checks.Issue{Line: m.Line, Column: m.Column, Code: m.MessageID, Text: text})
	}
	return checks.FailResult(f, c.ID(), fmt.Sprintf("%d pylint message(s)", len(issues)), issues...), nil
}

func init() {
	checks.Register(&PylintCheck{})
}
