package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"repoguardian/internal/flags"
	"repoguardian/internal/model"
	"repoguardian/internal/stages"
)

type Config struct {
	Target  Target
	Checks  Checks
	Model   Model
	Limits  Limits
	Output  Output
	Runtime Runtime
	Server  Server
}

type Target struct {
	// Repository is the repository to analyze as a GitHub URL or OWNER/REPO.
	// It is parsed by the authenticate stage so that a bad value still
	// produces a report.
	Repository string

	// Branch overrides the repository default branch (see --branch).
	Branch string

	// Token is an explicit GitHub token (see --token). Empty falls back to
	// GITHUB_TOKEN, then to gh auth token.
	Token string
}

type Checks struct {
	// Selector is a comma-separated list of check IDs. Empty means all.
	Selector string

	// Set holds per-check option overrides as checkID.option=value
	// (repeatable; comma-separated accepted; see --set).
	Set []string
}

type Model struct {
	// Backend is one of auto, http, cli (see --model-backend).
	Backend string
	Name    string
	Host    string
	Timeout time.Duration
}

type Limits struct {
	// MaxFiles caps the files downloaded per run (see --max-files).
	MaxFiles int

	// MaxFixFiles caps model calls in the fix stage (see --max-fix-files).
	MaxFixFiles int
}

type Output struct {
	// ConsoleFormat is one of text, json, ndjson (see --console-format).
	ConsoleFormat string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out: json or ndjson. Inferred from
	// the --out extension when empty.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Timeout bounds one whole analysis (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables debug logging and prints every GitHub API call.
	Verbose bool
}

type Server struct {
	// Addr is the listen address of the web form (see serve --addr).
	Addr string
}

// Env is the environment layer. Flags that were set explicitly win over it.
type Env struct {
	GitHubToken  string `env:"GITHUB_TOKEN"`
	OllamaModel  string `env:"OLLAMA_MODEL,default=deepseek-coder"`
	OllamaHost   string `env:"OLLAMA_HOST"`
	ModelBackend string `env:"REPOGUARDIAN_MODEL_BACKEND"`
	Addr         string `env:"REPOGUARDIAN_ADDR"`
}

func LoadEnv(ctx context.Context) (Env, error) {
	var env Env
	if err := envconfig.Process(ctx, &env); err != nil {
		return Env{}, fmt.Errorf("load environment: %w", err)
	}
	return env, nil
}

const (
	DefaultAddr    = ":7860"
	DefaultTimeout = 10 * time.Minute
)

func New() *Config {
	limits := stages.DefaultLimits()
	return &Config{
		Model: Model{
			Backend: model.BackendAuto,
			Name:    model.DefaultModel,
			Host:    model.DefaultHost,
			Timeout: model.DefaultTimeout,
		},
		Limits: Limits{
			MaxFiles:    limits.MaxFetchFiles,
			MaxFixFiles: limits.MaxFixFiles,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Timeout: DefaultTimeout,
		},
		Server: Server{
			Addr: DefaultAddr,
		},
	}
}

// ApplyEnv copies non-empty environment values into fields whose flag was
// not set explicitly. changed reports whether a flag was given; nil means
// no flag was.
func (c *Config) ApplyEnv(env Env, changed func(name string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	set := func(dst *string, flag, value string) {
		if value = strings.TrimSpace(value); value != "" && !changed(flag) {
			*dst = value
		}
	}
	set(&c.Target.Token, flags.FlagToken, env.GitHubToken)
	set(&c.Model.Name, flags.FlagModel, env.OllamaModel)
	set(&c.Model.Host, flags.FlagOllamaHost, env.OllamaHost)
	set(&c.Model.Backend, flags.FlagModelBackend, env.ModelBackend)
	set(&c.Server.Addr, flags.FlagAddr, env.Addr)
}

func (c *Config) Validate() error {
	c.Target.Repository = strings.TrimSpace(c.Target.Repository)
	c.Target.Branch = strings.TrimSpace(c.Target.Branch)
	c.Target.Token = strings.TrimSpace(c.Target.Token)

	// Model validation
	c.Model.Backend = normalizeEnumValue(c.Model.Backend)
	if c.Model.Backend == "" {
		c.Model.Backend = model.BackendAuto
	}
	switch c.Model.Backend {
	case model.BackendAuto, model.BackendHTTP, model.BackendCLI:
	default:
		return fmt.Errorf("unsupported --model-backend: %s (must be one of: auto, http, cli)", c.Model.Backend)
	}
	c.Model.Name = strings.TrimSpace(c.Model.Name)
	if c.Model.Name == "" {
		return errors.New("--model must not be empty")
	}
	if strings.ContainsAny(c.Model.Name, " \t\n") {
		return fmt.Errorf("invalid --model %q: must not contain whitespace", c.Model.Name)
	}
	c.Model.Host = strings.TrimRight(strings.TrimSpace(c.Model.Host), "/")
	if c.Model.Host != "" {
		u, err := url.Parse(c.Model.Host)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --ollama-host %q: expected http(s)://host:port", c.Model.Host)
		}
	}
	if c.Model.Timeout <= 0 {
		return errors.New("--model-timeout must be > 0")
	}

	// Limits validation
	if c.Limits.MaxFiles < 1 {
		return errors.New("--max-files must be >= 1")
	}
	if c.Limits.MaxFixFiles < 1 {
		return errors.New("--max-fix-files must be >= 1")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	// Check option syntax validation (check.option=value)
	c.Checks.Selector = strings.TrimSpace(c.Checks.Selector)
	if len(c.Checks.Set) > 0 {
		if _, err := ParseCheckOptionAssignments(c.Checks.Set); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = DefaultAddr
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// assignmentStart matches the "checkID.option=" head of an assignment.
var assignmentStart = regexp.MustCompile(`^\s*[A-Za-z0-9_-]+\.[A-Za-z0-9_.-]+\s*=`)

// ParseCheckOptionAssignments parses values of the form "checkID.option=value".
//
// Notes:
//   - Entries may be provided via repeated flags and/or comma-delimited lists.
//     A comma only separates entries when the text after it starts a new
//     assignment, so list values like "x.ignore.paths=a,b" stay intact.
//   - The option name is everything after the first dot.
//   - This validates syntax only (no validation of check IDs or option names).
//   - Empty values are allowed ("check.option=").
func ParseCheckOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range splitAssignments(values) {
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected check.option=value", raw)
		}
		checkID, opt, ok := strings.Cut(strings.TrimSpace(left), ".")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected check.option=value", raw)
		}
		checkID = strings.TrimSpace(checkID)
		opt = strings.TrimSpace(opt)
		if checkID == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty check and option", raw)
		}
		if _, ok := out[checkID]; !ok {
			out[checkID] = make(map[string]string)
		}
		out[checkID][opt] = strings.TrimSpace(value)
	}
	return out, nil
}

func splitAssignments(values []string) []string {
	var out []string
	for _, v := range values {
		var cur []string
		flush := func() {
			if s := strings.TrimSpace(strings.Join(cur, ",")); s != "" {
				out = append(out, s)
			}
			cur = nil
		}
		for _, part := range strings.Split(v, ",") {
			if len(cur) > 0 && assignmentStart.MatchString(part) {
				flush()
			}
			if strings.TrimSpace(part) == "" {
				continue
			}
			cur = append(cur, part)
		}
		flush()
	}
	return out
}
