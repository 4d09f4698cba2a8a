// Package model talks to a local Ollama model, either through its HTTP API or
// by shelling out to the ollama CLI.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"repoguardian/internal/pipeline"
)

// Backend completes a prompt. Errors carry a pipeline error kind:
// BackendUnavailable when the model cannot be reached, TimeoutError when
// the call ran out of time.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	BackendAuto = "auto"
	BackendHTTP = "http"
	BackendCLI  = "cli"

	DefaultModel       = "deepseek-coder"
	DefaultHost        = "http://127.0.0.1:11434"
	DefaultTimeout     = 60 * time.Second
	DefaultNumPredict  = 500
	DefaultTemperature = 0.2
)

type Config struct {
	// Backend is one of auto, http, cli.
	Backend     string
	Model       string
	Host        string
	Timeout     time.Duration
	NumPredict  int
	Temperature float64
	// Binary overrides the ollama executable for the CLI backend.
	Binary string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Backend) == "" {
		c.Backend = BackendAuto
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if strings.TrimSpace(c.Host) == "" {
		c.Host = DefaultHost
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.NumPredict <= 0 {
		c.NumPredict = DefaultNumPredict
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Binary == "" {
		c.Binary = "ollama"
	}
	return c
}

// New builds the backend named by cfg.Backend. auto tries the HTTP API first
// and falls back to the CLI when the server is unreachable.
func New(cfg Config) (Backend, error) {
	cfg = cfg.withDefaults()
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendHTTP:
		return NewHTTP(cfg), nil
	case BackendCLI:
		return NewCLI(cfg), nil
	case BackendAuto:
		return Fallback(NewHTTP(cfg), NewCLI(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported model backend %q (must be one of: auto, http, cli)", cfg.Backend)
	}
}

// timeoutFailure reports a deadline hit during a model call. It blames the
// caller's deadline when that one expired, else the per-call timeout.
func timeoutFailure(parent context.Context, perCall time.Duration) error {
	if errors.Is(parent.Err(), context.DeadlineExceeded) {
		return pipeline.Failure(pipeline.KindTimeout, "analysis deadline reached while waiting for ollama")
	}
	return pipeline.Failure(pipeline.KindTimeout, "ollama timed out after %s", perCall)
}
