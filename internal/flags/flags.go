package flags

// Package flags defines canonical CLI flag names shared by the CLI and the
// config layer, which needs them to tell explicit flags from environment
// defaults.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Target.Branch, flags.FlagBranch, "", "...")
//	changed := cmd.Flags().Changed(flags.FlagBranch)
const (
	// Target
	FlagToken  = "token"
	FlagBranch = "branch"

	// Checks
	FlagChecks = "checks"
	FlagSet    = "set"

	// Model
	FlagModel        = "model"
	FlagModelBackend = "model-backend"
	FlagOllamaHost   = "ollama-host"
	FlagModelTimeout = "model-timeout"

	// Limits
	FlagMaxFiles    = "max-files"
	FlagMaxFixFiles = "max-fix-files"

	// Output
	FlagConsoleFormat = "console-format"
	FlagReport        = "report"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagTimeout = "timeout"
	FlagVerbose = "verbose"

	// Server
	FlagAddr = "addr"
)
