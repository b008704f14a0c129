package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/structarray/structarray/internal/cli/ui"
	"github.com/structarray/structarray/internal/tooling/build"
	"github.com/structarray/structarray/internal/utils"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:     "generate [packages]",
		Aliases: []string{"gen"},
		Short:   "Generate array accessors for annotated structs",
		Long: `Generate AsArray and ToArray methods for every struct marked with
//structarray:derive, writing one <package>_structarray.go file per package.

Every field of a derived struct must have the same type. A package with any
invalid struct gets no output file at all.

Packages default to the current directory, which is what go generate uses.
A trailing /... includes all packages below a directory.`,
		Example: `  # From a source file
  //go:generate structarray generate

  # All packages of a module
  structarray generate ./...

  # Derive a struct without annotating it, pointer method only
  structarray generate --type Vector --no-to-array ./geometry

  # Machine-readable diagnostics
  structarray generate --json ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, args, &flags, build.ModeGenerate)
		},
	}

	flags.register(cmd, true)
	return cmd
}

// runPipeline runs generate or check over the packages named by args
func runPipeline(cmd *cobra.Command, args []string, flags *runFlags, mode build.Mode) error {
	opts, err := flags.buildOptions(cmd, mode)
	if err != nil {
		return configFailure(cmd, err)
	}

	logger := newLogger(cmd)
	defer logger.Sync()

	if gofile := os.Getenv("GOFILE"); gofile != "" && len(args) == 0 {
		logger.Debug("invoked by go generate",
			zap.String("file", gofile),
			zap.String("package", os.Getenv("GOPACKAGE")))
	}

	dirs, err := utils.ExpandPatterns(args)
	if err != nil {
		return err
	}

	sys, err := build.NewSystem(opts, logger)
	if err != nil {
		return configFailure(cmd, err)
	}

	result, err := sys.Run(cmd.Context(), dirs)
	if err != nil {
		return err
	}

	return report(cmd, result, mode, flags.json)
}

func configFailure(cmd *cobra.Command, err error) error {
	cmd.PrintErr(ui.ConfigError(err.Error(), nil, color.NoColor))
	return reported("invalid configuration: %v", err)
}
