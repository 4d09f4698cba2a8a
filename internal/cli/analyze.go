package cli

import (
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"repoguardian/internal/config"
	"repoguardian/internal/engine"
	"repoguardian/internal/flags"
	gh "repoguardian/internal/github"
)

const analyzeHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  GITHUB_TOKEN                 GitHub token (used when --token is not given)
  OLLAMA_MODEL                 model name (default: deepseek-coder)
  OLLAMA_HOST                  Ollama HTTP API base URL
  REPOGUARDIAN_MODEL_BACKEND   auto|http|cli

  Token sources (in order):
  1) --token
  2) GITHUB_TOKEN environment variable
  3) GitHub CLI (gh) authentication via gh auth token
  Without a token RepoGuardian reads public repositories anonymously, which
  GitHub limits to 60 requests per hour.
`

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repository>",
	Short: "Analyze one GitHub repository",
	Long: `Analyze one GitHub repository.

The analysis runs five stages in order:
  authenticate  resolve the repository and branch (required)
  fetch         list the tree and download candidate files (required)
  validate      run the selected checks over every file (required)
  fix           ask the model for corrected versions of failing files (best-effort)
  summarize     score the repository and ask the model for a summary (best-effort)

A failing required stage ends the run; a failing best-effort stage is
recorded and the run continues.

Output:
	Console output is controlled by --console-format (default: text).
	- --out / --out-format: write the JSON report or an NDJSON event stream to a file
	- --report: write a Markdown report
	- --no-console: suppress the console sink

	NDJSON mode emits one JSON object per line with a "type" field
	(run.started, stage.finished, run.finished).

Exit codes:
	0 = completed, verdict Healthy
	1 = completed, verdict Fair or Needs Work
	2 = completed with best-effort stage failures
	3 = aborted at a required stage, or the analysis did not run

Examples:
  repoguardian analyze https://github.com/owner/repo
  repoguardian analyze owner/repo --branch dev --report report.md
  repoguardian analyze owner/repo --model-backend http --ollama-host http://gpu:11434
  repoguardian analyze owner/repo --checks python-syntax,flake8 --set flake8.python=python3.12
  repoguardian analyze owner/repo --no-console --out events.ndjson
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runAnalyze(cmd, args[0]))
	},
}

// runAnalyze layers the environment under the flags, validates, resolves
// the credential and runs the analysis, returning the exit code.
func runAnalyze(cmd *cobra.Command, repo string) int {
	ctx := cmd.Context()
	env, err := config.LoadEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 3
	}
	cfg.ApplyEnv(env, cmd.Flags().Changed)
	cfg.Target.Repository = repo

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 3
	}

	token, source, err := gh.ResolveAuthToken(ctx, cfg.Target.Token, gh.WithGitHubCLI(true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve GitHub auth token: %v\n", err)
		return 3
	}
	cfg.Target.Token = token
	clog.FromContext(ctx).Debugf("GitHub token source: %q", source)

	eng, err := engine.FromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 3
	}
	return eng.Run(ctx, cfg)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.SetHelpTemplate(analyzeHelpTemplate)

	// Target
	analyzeCmd.Flags().StringVar(&cfg.Target.Token, flags.FlagToken, "", "GitHub token (default: GITHUB_TOKEN, then gh auth token)")
	analyzeCmd.Flags().StringVar(&cfg.Target.Branch, flags.FlagBranch, "", "Branch to analyze (default: the repository default branch)")

	// Checks
	analyzeCmd.Flags().StringVar(&cfg.Checks.Selector, flags.FlagChecks, "", "Comma-separated check IDs to run (empty = all checks)")
	analyzeCmd.Flags().StringSliceVar(&cfg.Checks.Set, flags.FlagSet, nil, "Per-check options as checkID.option=value (repeatable; comma-separated accepted)")

	// Model
	analyzeCmd.Flags().StringVar(&cfg.Model.Name, flags.FlagModel, cfg.Model.Name, "Ollama model name (env: OLLAMA_MODEL)")
	analyzeCmd.Flags().StringVar(&cfg.Model.Backend, flags.FlagModelBackend, cfg.Model.Backend, "Model backend: auto|http|cli (env: REPOGUARDIAN_MODEL_BACKEND)")
	analyzeCmd.Flags().StringVar(&cfg.Model.Host, flags.FlagOllamaHost, cfg.Model.Host, "Ollama HTTP API base URL (env: OLLAMA_HOST)")
	analyzeCmd.Flags().DurationVar(&cfg.Model.Timeout, flags.FlagModelTimeout, cfg.Model.Timeout, "Timeout for each model call")

	// Limits
	analyzeCmd.Flags().IntVar(&cfg.Limits.MaxFiles, flags.FlagMaxFiles, cfg.Limits.MaxFiles, "Maximum number of files to download")
	analyzeCmd.Flags().IntVar(&cfg.Limits.MaxFixFiles, flags.FlagMaxFixFiles, cfg.Limits.MaxFixFiles, "Maximum number of fix suggestions to request from the model")

	// Output
	analyzeCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson")
	analyzeCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	analyzeCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	analyzeCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	analyzeCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out/--report)")

	// Runtime
	analyzeCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Timeout for the whole analysis")
}
