package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/structarray/structarray/internal/cli/config"
	"github.com/structarray/structarray/internal/tooling/build"
)

// runFlags are the generation flags shared by generate, check and watch.
// Flags left unset fall back to structarray.yaml and then to defaults.
type runFlags struct {
	types     []string
	output    string
	noToArray bool
	buildTags string
	jobs      int
	json      bool
}

func (f *runFlags) register(cmd *cobra.Command, withJSON bool) {
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", nil, "Derive these types in addition to annotated ones (comma separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Generated file name (default: <package>_structarray.go)")
	cmd.Flags().BoolVar(&f.noToArray, "no-to-array", false, "Only generate the pointer-returning method")
	cmd.Flags().StringVar(&f.buildTags, "build-tags", "", "Build constraint for the generated file, e.g. '!purego'")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Packages processed in parallel (default: number of CPUs)")
	if withJSON {
		cmd.Flags().BoolVar(&f.json, "json", false, "Output diagnostics in JSON format")
	}
}

// loadConfig reads --config when given, otherwise structarray.yaml in the
// working directory
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path := stringFlag(cmd, "config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// buildOptions merges configuration and flags into build options
func (f *runFlags) buildOptions(cmd *cobra.Command, mode build.Mode) (*build.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("type") {
		cfg.Types = append(cfg.Types, f.types...)
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("no-to-array") {
		cfg.ToArray = !f.noToArray
	}
	if flags.Changed("build-tags") {
		cfg.BuildTags = f.buildTags
	}
	if flags.Changed("jobs") {
		cfg.MaxJobs = f.jobs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := build.DefaultOptions()
	opts.Mode = mode
	opts.Types = cfg.Types
	opts.OutputFile = cfg.Output
	opts.BuildTags = cfg.BuildTags
	opts.MaxJobs = cfg.MaxJobs
	opts.Deriver = cfg.DeriverOptions()
	return opts, nil
}

// newLogger returns a development logger when --verbose is set
func newLogger(cmd *cobra.Command) *zap.Logger {
	if !boolFlag(cmd, "verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named("structarray")
}

func stringFlag(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

func boolFlag(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String() == "true"
	}
	return false
}

// reportedError signals a failure whose details were already printed
type reportedError struct {
	msg string
}

func (e *reportedError) Error() string {
	return e.msg
}

func reported(format string, args ...interface{}) error {
	return &reportedError{msg: fmt.Sprintf(format, args...)}
}
