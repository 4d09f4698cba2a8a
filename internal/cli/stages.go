package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"repoguardian/internal/pipeline"
	"repoguardian/internal/stages"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the analysis stages in execution order",
	Long: `List the analysis stages in execution order.

Required stages end the run when they fail. Best-effort stages record their
failure and the run continues.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printStages(cmd.OutOrStdout(), stages.Default(stages.Deps{}))
		return nil
	},
}

func printStages(w io.Writer, specs []pipeline.StageSpec) {
	for i, s := range specs {
		mode := "best-effort"
		if s.Required {
			mode = "required"
		}
		fmt.Fprintf(w, "%d. %-12s %s\n", i+1, s.Name, mode)
	}
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
