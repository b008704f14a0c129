package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/structarray/structarray/internal/cli/ui"
	"github.com/structarray/structarray/internal/compiler/codegen"
	"github.com/structarray/structarray/internal/tooling/build"
	"github.com/structarray/structarray/internal/utils"
	"github.com/structarray/structarray/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "watch [packages]",
		Short: "Regenerate when Go sources change",
		Long: `Generate once, then watch the packages and regenerate a package whenever
one of its non-test .go files is written, created, removed or renamed.

Generated files are ignored, so a regeneration never triggers another.
Errors are printed and watching continues.`,
		Example: `  structarray watch ./...
  structarray watch --verbose ./geometry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args, &flags)
		},
	}

	flags.register(cmd, false)
	return cmd
}

// ignoredPatterns lists base names the watcher skips
func ignoredPatterns(output string) []string {
	patterns := []string{"*" + codegen.DefaultFileSuffix, "*.swp", "*~"}
	if output != "" {
		patterns = append(patterns, output)
	}
	return patterns
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string, flags *runFlags) error {
	opts, err := flags.buildOptions(cmd, build.ModeGenerate)
	if err != nil {
		return configFailure(cmd, err)
	}
	opts.UseCache = true

	logger := newLogger(cmd)
	defer logger.Sync()

	dirs, err := utils.ExpandPatterns(args)
	if err != nil {
		return err
	}

	sys, err := build.NewSystem(opts, logger)
	if err != nil {
		return configFailure(cmd, err)
	}

	result, err := sys.Run(ctx, dirs)
	if err != nil {
		return err
	}
	// Findings are already printed; keep watching so they can be fixed.
	_ = report(cmd, result, build.ModeGenerate, false)

	errorColor := color.New(color.FgRed, color.Bold)
	rebuilder := watch.NewRebuilder(sys, logger, func(res *build.Result, err error) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n[%s] change detected\n", time.Now().Format("15:04:05"))
		if err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		_ = report(cmd, res, build.ModeGenerate, false)
	})

	fw, err := watch.NewFileWatcher(dirs, ignoredPatterns(opts.OutputFile), logger, func(files []string) error {
		return rebuilder.Handle(ctx, files)
	})
	if err != nil {
		return err
	}
	if err := fw.Start(); err != nil {
		fw.Stop()
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), ui.Info("Watching "+plural(len(dirs), "package", "packages")+" for changes", color.NoColor))
	for _, dir := range dirs {
		fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", dir)
	}
	color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "   Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Debug("stopping watcher", zap.Int("dirs", len(dirs)))

	if err := fw.Stop(); err != nil {
		return fmt.Errorf("error stopping watcher: %w", err)
	}
	return nil
}
