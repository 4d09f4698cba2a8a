package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repoguardian/internal/config"
	"repoguardian/internal/engine"
	"repoguardian/internal/flags"
	"repoguardian/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web form and JSON API",
	Long: `Serve the RepoGuardian web form and JSON API.

Routes:
  GET  /             analysis form
  POST /analyze      run one analysis and render the report
  POST /api/analyze  run one analysis and return the report as JSON
  GET  /health       liveness probe

Visitors may paste a GitHub token into the form; otherwise GITHUB_TOKEN is
used. The host's gh CLI login is never used for web requests.

Examples:
  repoguardian serve
  REPOGUARDIAN_ADDR=:8080 repoguardian serve
  repoguardian serve --addr 127.0.0.1:7860 --model-backend http
  repoguardian serve --out repo_report.json
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := config.LoadEnv(ctx)
		if err != nil {
			return err
		}
		cfg.ApplyEnv(env, cmd.Flags().Changed)
		// Web visitors bring their own token; the host's stays in GITHUB_TOKEN.
		cfg.Target.Token = ""
		if err := cfg.Validate(); err != nil {
			return err
		}

		eng, err := engine.FromConfig(cfg)
		if err != nil {
			return err
		}
		srv, err := server.New(cfg.Server.Addr, eng,
			server.WithTimeout(cfg.Runtime.Timeout),
			server.WithReportPath(cfg.Output.Out),
		)
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}
		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&cfg.Server.Addr, flags.FlagAddr, cfg.Server.Addr, "Listen address (env: REPOGUARDIAN_ADDR)")
	serveCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Save the JSON report of the latest analysis to this path")
	serveCmd.Flags().StringVar(&cfg.Checks.Selector, flags.FlagChecks, "", "Comma-separated check IDs to run (empty = all checks)")
	serveCmd.Flags().StringSliceVar(&cfg.Checks.Set, flags.FlagSet, nil, "Per-check options as checkID.option=value (repeatable; comma-separated accepted)")
	serveCmd.Flags().StringVar(&cfg.Model.Name, flags.FlagModel, cfg.Model.Name, "Ollama model name (env: OLLAMA_MODEL)")
	serveCmd.Flags().StringVar(&cfg.Model.Backend, flags.FlagModelBackend, cfg.Model.Backend, "Model backend: auto|http|cli (env: REPOGUARDIAN_MODEL_BACKEND)")
	serveCmd.Flags().StringVar(&cfg.Model.Host, flags.FlagOllamaHost, cfg.Model.Host, "Ollama HTTP API base URL (env: OLLAMA_HOST)")
	serveCmd.Flags().DurationVar(&cfg.Model.Timeout, flags.FlagModelTimeout, cfg.Model.Timeout, "Timeout for each model call")
	serveCmd.Flags().IntVar(&cfg.Limits.MaxFiles, flags.FlagMaxFiles, cfg.Limits.MaxFiles, "Maximum number of files to download per analysis")
	serveCmd.Flags().IntVar(&cfg.Limits.MaxFixFiles, flags.FlagMaxFixFiles, cfg.Limits.MaxFixFiles, "Maximum number of fix suggestions per analysis")
	serveCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Timeout for each analysis request")
}
