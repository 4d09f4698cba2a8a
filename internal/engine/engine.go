// Package engine binds configuration and collaborators to the analysis
// stages and drives one analysis for the CLI and the web server.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"repoguardian/internal/checks"
	"repoguardian/internal/config"
	gh "repoguardian/internal/github"
	"repoguardian/internal/model"
	"repoguardian/internal/models"
	"repoguardian/internal/output"
	"repoguardian/internal/pipeline"
	"repoguardian/internal/stages"
)

func exitCodeForRun(fatal, partial, unhealthy bool) int {
	// Exit code contract:
	// 0 = completed, every stage succeeded, verdict Healthy
	// 1 = completed, verdict not Healthy
	// 2 = completed with best-effort stage failures
	// 3 = aborted at a required stage, or the analysis did not run
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if unhealthy {
		return 1
	}
	return 0
}

// ExitCode maps a finished report onto the CLI exit code contract.
func ExitCode(r *pipeline.Report) int {
	if r == nil || r.Aborted() {
		return exitCodeForRun(true, false, false)
	}
	partial := len(r.Failures()) > 0
	unhealthy := true
	if s, ok := pipeline.Lookup[*models.Summary](stateOf(r), stages.StageSummarize); ok && s != nil {
		unhealthy = s.Verdict != models.VerdictHealthy
	}
	return exitCodeForRun(false, partial, unhealthy)
}

func stateOf(r *pipeline.Report) pipeline.State {
	state := make(pipeline.State, len(r.Entries))
	for _, e := range r.Entries {
		if e.Result.OK() {
			state[e.Stage] = e.Result.Payload
		}
	}
	return state
}

type Engine struct {
	stages []pipeline.StageSpec
}

type options struct {
	clientOpts []gh.Option
	backend    model.Backend
}

type Option func(*options)

// WithClientOptions adds options to every GitHub client the engine builds.
func WithClientOptions(opts ...gh.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithModel replaces the model backend built from the configuration.
func WithModel(b model.Backend) Option {
	return func(o *options) { o.backend = b }
}

// NewEngine runs the given stages. Most callers want FromConfig.
func NewEngine(specs []pipeline.StageSpec) *Engine {
	return &Engine{stages: specs}
}

// FromConfig resolves and configures the selected checks, builds the model
// backend and returns an engine running the default stages. Check options
// are applied to the shared registered instances.
func FromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config is nil")
	}
	o := options{}
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	selected, err := resolveAndConfigureChecks(cfg)
	if err != nil {
		return nil, err
	}

	backend := o.backend
	if backend == nil {
		backend, err = model.New(model.Config{
			Backend: cfg.Model.Backend,
			Model:   cfg.Model.Name,
			Host:    cfg.Model.Host,
			Timeout: cfg.Model.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	clientOpts := append([]gh.Option{gh.WithVerbose(cfg.Runtime.Verbose, nil)}, o.clientOpts...)
	limits := stages.DefaultLimits()
	limits.MaxFetchFiles = cfg.Limits.MaxFiles
	limits.MaxFixFiles = cfg.Limits.MaxFixFiles

	return NewEngine(stages.Default(stages.Deps{
		NewClient: func(ctx context.Context, token string) (*gh.Client, error) {
			return gh.NewClient(ctx, token, clientOpts...)
		},
		Model:  backend,
		Checks: selected,
		Limits: limits,
	})), nil
}

func resolveAndConfigureChecks(cfg *config.Config) ([]checks.Check, error) {
	selected, err := checks.Resolve(cfg.Checks.Selector)
	if err != nil {
		return nil, fmt.Errorf("resolve checks: %w", err)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no checks selected")
	}
	if len(cfg.Checks.Set) == 0 {
		return selected, nil
	}
	assignments, err := config.ParseCheckOptionAssignments(cfg.Checks.Set)
	if err != nil {
		return nil, err
	}
	if err := checks.Configure(selected, assignments); err != nil {
		return nil, fmt.Errorf("configure checks: %w", err)
	}
	return selected, nil
}

// Stages returns the stage list in execution order.
func (e *Engine) Stages() []pipeline.StageSpec {
	return append([]pipeline.StageSpec(nil), e.stages...)
}

func (e *Engine) stageNames() []string {
	names := make([]string, 0, len(e.stages))
	for _, s := range e.stages {
		names = append(names, s.Name)
	}
	return names
}

// Analyze runs every stage over req. Each call gets its own state and
// report. The error is non-nil only when req or the stage list is unusable.
func (e *Engine) Analyze(ctx context.Context, req pipeline.Request, opts ...pipeline.Option) (*pipeline.Report, error) {
	return pipeline.Run(ctx, req, e.stages, opts...)
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(os.Stdout, cfg.Output.ConsoleFormat)
		if err != nil {
			return nil, err
		}
		if err := outMgr.Add(cs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.Add(fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.Add(rs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// Run performs one analysis for the CLI, writing events and the report to
// the configured sinks, and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	log := clog.FromContext(ctx)

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			log.Warnf("closing output: %v", err)
		}
	}()

	req, err := pipeline.NewRequest(cfg.Target.Repository, cfg.Target.Token, pipeline.WithBranch(cfg.Target.Branch))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	if req.Anonymous() {
		log.Warnf("no GitHub token; using anonymous access (60 requests/hour)")
	}

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	repo := strings.TrimSpace(cfg.Target.Repository)
	write := func(v any) {
		if err := outMgr.Write(v); err != nil {
			log.Warnf("output: %v", err)
		}
	}
	write(output.Event{Type: output.EventRunStarted, RunID: runID, Repo: repo, Stages: e.stageNames(), Time: time.Now()})

	report, err := e.Analyze(ctx, req, pipeline.WithRunID(runID), pipeline.WithObserver(outMgr.Observer(repo)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	write(report)

	code := ExitCode(report)
	write(output.Event{
		Type:     output.EventRunFinished,
		RunID:    runID,
		Repo:     repo,
		State:    report.State,
		Summary:  report.Summary,
		ExitCode: code,
		Time:     time.Now(),
	})
	return code
}
