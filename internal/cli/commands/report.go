package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/cli/ui"
	"github.com/structarray/structarray/internal/tooling/build"
)

// report prints the outcome of a run and returns a reportedError when any
// diagnostic is an error
func report(cmd *cobra.Command, result *build.Result, mode build.Mode, jsonOut bool) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	noColor := color.NoColor

	if jsonOut {
		doc, err := errors.FormatErrorsAsJSON(result.Diagnostics)
		if err != nil {
			return fmt.Errorf("failed to encode diagnostics: %w", err)
		}
		fmt.Fprintln(out, doc)
	} else {
		writeDiagnostics(errOut, result.Diagnostics)
		if boolFlag(cmd, "verbose") {
			writeSummaryTable(out, result, noColor)
		}
	}

	errCount, warnCount := result.ErrorCount, result.WarningCount
	if errCount > 0 {
		if !jsonOut {
			fmt.Fprintln(errOut, errors.FormatSummary(errCount, warnCount))
			failed := result.Count(build.StatusFailed)
			stale := result.Count(build.StatusStale)
			if mode == build.ModeCheck && failed == 0 {
				fmt.Fprint(errOut, ui.StaleError(plural(stale, "generated file is", "generated files are")+" out of date", noColor))
			} else {
				fmt.Fprint(errOut, ui.GenerateError(plural(errCount, "error", "errors")+" in "+plural(failed+stale, "package", "packages"), noColor))
			}
		}
		return reported("%s %s", mode, plural(errCount, "error", "errors"))
	}

	if !jsonOut {
		if len(result.Dirs) > 0 && result.Count(build.StatusNoRecords)+result.Count(build.StatusRemoved) == len(result.Dirs) {
			fmt.Fprint(errOut, ui.Warning("no types marked //structarray:derive in "+plural(len(result.Dirs), "package", "packages"), nil, noColor))
		}
		ui.WriteSuccess(out, successMessage(result, mode), noColor)
	}
	return nil
}

func writeDiagnostics(w io.Writer, diags []errors.CompilerError) {
	for _, d := range diags {
		fmt.Fprintln(w, d.FormatForTerminal())
	}
}

func writeSummaryTable(w io.Writer, result *build.Result, noColor bool) {
	table := ui.NewTable(w, []string{"Package", "Status", "Types", "Output"}, noColor)
	for _, d := range result.Dirs {
		output := ""
		if d.Status == build.StatusWritten || d.Status == build.StatusUnchanged || d.Status == build.StatusUpToDate {
			output = filepath.Base(d.OutputPath)
		}
		table.AddRow(d.Dir, d.Status.String(), strings.Join(d.Records, ", "), output)
	}
	table.Render()
	fmt.Fprintln(w)
}

func successMessage(result *build.Result, mode build.Mode) string {
	secs := result.Duration.Seconds()
	if mode == build.ModeCheck {
		return fmt.Sprintf("%s up to date (%.2fs)", plural(result.Count(build.StatusUpToDate), "generated file", "generated files"), secs)
	}

	written := result.Count(build.StatusWritten)
	unchanged := result.Count(build.StatusUnchanged) + result.Count(build.StatusCached)
	msg := fmt.Sprintf("Generated %s", plural(written, "file", "files"))
	if unchanged > 0 {
		msg += fmt.Sprintf(", %d unchanged", unchanged)
	}
	if removed := result.Count(build.StatusRemoved); removed > 0 {
		msg += fmt.Sprintf(", %d removed", removed)
	}
	return msg + fmt.Sprintf(" in %.2fs", secs)
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, many)
}
