package errors

import (
	"os"
	"strings"
)

// contextRadius is how many lines are shown on each side of the error line
const contextRadius = 2

// EnrichError attaches source context and, where one is known, a fix
// suggestion.
func EnrichError(err CompilerError, source string) CompilerError {
	err = err.WithContext(extractSourceContext(err.Location, source))
	return withDefaultSuggestion(err)
}

func withDefaultSuggestion(err CompilerError) CompilerError {
	if err.Suggestion == nil {
		if suggestion := suggestFix(err); suggestion != nil {
			err = err.WithSuggestion(*suggestion)
		}
	}
	return err
}

// EnrichErrorFromFile reads the file named by the error location and
// enriches the error. When the file cannot be read, such as a directory or
// an output file not written yet, only the suggestion is added.
func EnrichErrorFromFile(err CompilerError) CompilerError {
	if err.Location.File == "" {
		return withDefaultSuggestion(err)
	}
	content, readErr := os.ReadFile(err.Location.File)
	if readErr != nil {
		return withDefaultSuggestion(err)
	}
	return EnrichError(err, string(content))
}

func extractSourceContext(location SourceLocation, source string) ErrorContext {
	lines := strings.Split(source, "\n")
	if location.Line < 1 || location.Line > len(lines) {
		return ErrorContext{}
	}

	errorLine := location.Line - 1
	first := max(0, errorLine-contextRadius)
	last := min(len(lines), errorLine+contextRadius+1)

	contextLines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		contextLines = append(contextLines, strings.ReplaceAll(lines[i], "\t", "    "))
	}

	// Columns are byte offsets into the raw line; account for expanded tabs.
	raw := lines[errorLine]
	col := max(0, location.Column-1)
	if col > len(raw) {
		col = len(raw)
	}
	start := col + 3*strings.Count(raw[:col], "\t")
	length := location.Length
	if length <= 0 {
		length = 1
	}

	return ErrorContext{
		SourceLines: contextLines,
		FirstLine:   first + 1,
		Highlight: Highlight{
			Line:  errorLine - first,
			Start: start,
			End:   start + length,
		},
	}
}
