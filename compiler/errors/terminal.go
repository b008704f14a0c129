package errors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var (
	boldColor  = color.New(color.Bold)
	cyanColor  = color.New(color.FgCyan)
	blueColor  = color.New(color.FgBlue)
	grayColor  = color.New(color.FgHiBlack)
	caretColor = color.New(color.FgRed, color.Bold)
	helpColor  = color.New(color.FgCyan, color.Bold)
)

func severityColor(severity Severity) *color.Color {
	switch severity {
	case Info:
		return color.New(color.FgBlue, color.Bold)
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

// FormatForTerminal renders the diagnostic the way a compiler does:
// header, location arrow, source excerpt with carets, help and notes.
func (e CompilerError) FormatForTerminal() string {
	var sb strings.Builder

	severityColor(e.Severity).Fprintf(&sb, "%s[%s]", e.Severity, e.Code)
	boldColor.Fprintf(&sb, ": %s\n", e.Message)
	fmt.Fprintf(&sb, "  %s %s\n", cyanColor.Sprint("-->"), e.Location)

	if len(e.Context.SourceLines) > 0 {
		sb.WriteString(formatSourceContext(e.Context))
	}

	for _, note := range e.Notes {
		fmt.Fprintf(&sb, "  %s %s (%s)\n", blueColor.Sprint("= note:"), note.Message, note.Location)
	}

	if e.Suggestion != nil {
		sb.WriteString(formatSuggestion(*e.Suggestion))
	}

	return sb.String()
}

func formatSourceContext(ctx ErrorContext) string {
	var sb strings.Builder

	width := len(fmt.Sprint(ctx.FirstLine + len(ctx.SourceLines)))
	gutter := strings.Repeat(" ", width)
	bar := blueColor.Sprint("|")

	fmt.Fprintf(&sb, " %s %s\n", gutter, bar)
	for i, line := range ctx.SourceLines {
		num := fmt.Sprintf("%*d", width, ctx.FirstLine+i)
		if i == ctx.Highlight.Line {
			fmt.Fprintf(&sb, " %s %s %s\n", blueColor.Sprint(num), bar, line)
			length := max(1, ctx.Highlight.End-ctx.Highlight.Start)
			fmt.Fprintf(&sb, " %s %s %s%s\n", gutter, bar,
				strings.Repeat(" ", ctx.Highlight.Start),
				caretColor.Sprint(strings.Repeat("^", length)))
			continue
		}
		fmt.Fprintf(&sb, " %s %s %s\n", grayColor.Sprint(num), bar, line)
	}
	fmt.Fprintf(&sb, " %s %s\n", gutter, bar)

	return sb.String()
}

func formatSuggestion(suggestion FixSuggestion) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", helpColor.Sprint("help:"), suggestion.Description)
	if suggestion.NewCode != "" {
		for _, line := range strings.Split(suggestion.NewCode, "\n") {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	}

	return sb.String()
}

// FormatSummary formats the closing line of a failed run
func FormatSummary(errorCount, warningCount int) string {
	var parts []string
	if errorCount > 0 {
		parts = append(parts, color.RedString("%d error(s)", errorCount))
	}
	if warningCount > 0 {
		parts = append(parts, color.YellowString("%d warning(s)", warningCount))
	}
	if len(parts) == 0 {
		return color.GreenString("No errors or warnings") + "\n"
	}
	return boldColor.Sprintf("generation failed with %s", strings.Join(parts, " and ")) + "\n"
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripColors removes ANSI escape sequences from s
func StripColors(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
