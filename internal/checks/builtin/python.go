package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultPython = "python3"
	toolTimeout   = 60 * time.Second
)

// errToolMissing means the interpreter or the Python module is not
// installed; checks report SKIPPED instead of ERROR.
var errToolMissing = errors.New("tool not installed")

type toolOutput struct {
	stdout   []byte
	stderr   []byte
	exitCode int
}

// runPython runs `python -<args>` with src on stdin. A non-zero exit status
// is not an error: linters use it to signal findings.
func runPython(ctx context.Context, python string, src []byte, args ...string) (toolOutput, error) {
	if python == "" {
		python = defaultPython
	}
	if _, err := exec.LookPath(python); err != nil {
		return toolOutput{}, fmt.Errorf("%s: %w", python, errToolMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python, args...)
	cmd.Stdin = bytes.NewReader(src)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := toolOutput{stdout: stdout.Bytes(), stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return out, fmt.Errorf("%s %s: %w", python, strings.Join(args, " "), ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.exitCode = exitErr.ExitCode()
		if bytes.Contains(out.stderr, []byte("No module named")) {
			return out, fmt.Errorf("%s: %w", strings.TrimSpace(lastLine(out.stderr)), errToolMissing)
		}
		return out, nil
	}
	return out, err
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return lines[len(lines)-1]
}

// pythonOption is the shared "python" option of the Python-backed checks.
type pythonOption struct {
	python string
}

func (o *pythonOption) interpreter() string {
	if o.python == "" {
		return defaultPython
	}
	return o.python
}

func (o *pythonOption) configure(opts map[string]string) error {
	if v, ok := opts["python"]; ok {
		v = strings.TrimSpace(v)
		if strings.ContainsAny(v, " \t") {
			return fmt.Errorf("python: interpreter path must not contain whitespace: %q", v)
		}
		o.python = v
	}
	return nil
}

func (o *pythonOption) description() string {
	return "Python interpreter used to run the tool."
}
