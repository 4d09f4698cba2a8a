package builtin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"repoguardian/internal/checks"
)

const flake8Format = "%(row)d:%(col)d:%(code)s:%(text)s"

type Flake8Check struct {
	pythonOption
}

func (c *Flake8Check) ID() string            { return "flake8" }
func (c *Flake8Check) Title() string         { return "flake8 Reports No Warnings" }
func (c *Flake8Check) Kind() checks.Kind     { return checks.KindLint }
func (c *Flake8Check) Applies(p string) bool { return checks.HasExt(p, ".py") }

func (c *Flake8Check) Description() string {
	return "Runs flake8 over Python files. Skipped when flake8 is not installed for the configured interpreter."
}

func (c *Flake8Check) Options() []checks.Option {
	return []checks.Option{{Name: "python", Description: c.description(), Default: defaultPython}}
}

func (c *Flake8Check) Configure(opts map[string]string) error {
	return c.configure(opts)
}

func (c *Flake8Check) Run(ctx context.Context, f checks.File) (checks.Result, error) {
	out, err := runPython(ctx, c.interpreter(), f.Content,
		"-m", "flake8", "--format="+flake8Format, "--stdin-display-name", f.Path, "-")
	if errors.Is(err, errToolMissing) {
		return checks.SkippedResult(f, c.ID(), err.Error()), nil
	}
	if err != nil {
		return checks.Result{}, err
	}

	issues := parseFlake8(out.stdout)
	if len(issues) == 0 {
		if out.exitCode != 0 {
			return checks.ErrorResult(f, c.ID(), fmt.Sprintf("flake8 exited %d: %s", out.exitCode, lastLine(out.stderr))), nil
		}
		return checks.PassResult(f, c.ID()), nil
	}
	return checks.FailResult(f, c.ID(), fmt.Sprintf("%d flake8 warning(s)", len(issues)), issues...), nil
}

// parseFlake8 reads row:col:code:text lines. Lines that do not match are
// ignored.
func parseFlake8(b []byte) []checks.Issue {
	var issues []checks.Issue
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		parts := strings.SplitN(strings.TrimSpace(sc.Text()), ":", 4)
		if len(parts) != 4 {
			continue
		}
		row, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		col, _ := strconv.Atoi(parts[1])
		issues = append(issues, checks.Issue{Line: row, Column: col, Code: parts[2], Text: strings.TrimSpace(parts[3])})
	}
	return issues
}

func init() {
	checks.Register(&Flake8Check{})
}
