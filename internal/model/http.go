package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"repoguardian/internal/pipeline"
)

// HTTP calls the Ollama generate API.
type HTTP struct {
	host        string
	model       string
	numPredict  int
	temperature float64
	timeout     time.Duration
	client      *http.Client
}

func NewHTTP(cfg Config) *HTTP {
	cfg = cfg.withDefaults()
	return &HTTP{
		host:        strings.TrimSuffix(cfg.Host, "/"),
		model:       cfg.Model,
		numPredict:  cfg.NumPredict,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		client:      &http.Client{},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (h *HTTP) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", nil
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:   h.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{NumPredict: h.numPredict, Temperature: h.temperature},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "invalid ollama host %q: %v", h.host, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", timeoutFailure(parent, h.timeout)
		}
		if ctx.Err() != nil {
			return "", pipeline.Failure(pipeline.KindCollaborator, "ollama request canceled")
		}
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "ollama unreachable at %s: %v", h.host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	clog.FromContext(ctx).Debugf("ollama http: model=%s status=%d took=%s", h.model, resp.StatusCode, time.Since(start).Truncate(time.Millisecond))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", timeoutFailure(parent, h.timeout)
		}
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "reading ollama response: %v", err)
	}

	var out generateResponse
	jerr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(out.Error)
		if jerr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "ollama error (%d): %s", resp.StatusCode, msg)
	}
	if jerr != nil {
		return "", pipeline.Failure(pipeline.KindCollaborator, "parsing ollama response: %v", jerr)
	}
	if out.Error != "" {
		return "", pipeline.Failure(pipeline.KindBackendUnavailable, "ollama error: %s", out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

func (h *HTTP) String() string {
	return fmt.Sprintf("ollama http %s (%s)", h.host, h.model)
}
