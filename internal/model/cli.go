package model

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/pipeline"
)

// CLI runs `ollama run <model>` with the prompt on stdin.
type CLI struct {
	binary  string
	model   string
	timeout time.Duration
}

func NewCLI(cfg Config) *CLI {
	cfg = cfg.withDefaults()
	return &CLI{binary: cfg.Binary, model: cfg.Model, timeout: cfg.Timeout}
}

func (c *CLI) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", nil
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return "", pipeline.Failure(pipeline.KindBackendUnavailable,
			"%s not found; install Ollama from https://ollama.com and add it to PATH", c.binary)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, "run", c.model)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	clog.FromContext(ctx).Debugf("ollama cli: model=%s bytes=%d took=%s", c.model, len(prompt), time.Since(start).Truncate(time.Millisecond))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", timeoutFailure(parent, c.timeout)
		}
		if ctx.Err() != nil {
			return "", pipeline.Failure(pipeline.KindCollaborator, "ollama run canceled")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "ollama error: %s", msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
