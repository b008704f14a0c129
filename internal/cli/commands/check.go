package commands

import (
	"github.com/spf13/cobra"

	"github.com/structarray/structarray/internal/tooling/build"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "check [packages]",
		Short: "Validate annotated structs and report stale generated files",
		Long: `Run the same validation as generate without writing anything. Generated
files that differ from what generate would write are reported as stale.

Exits non-zero on any error, which makes it suitable for CI.`,
		Example: `  structarray check ./...
  structarray check --json ./geometry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args, &flags, build.ModeCheck)
		},
	}

	flags.register(cmd, true)
	return cmd
}
