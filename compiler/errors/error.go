// Package errors defines the diagnostics produced by the structarray
// generator. Every validation failure surfaces as a CompilerError that the
// CLI renders for a terminal or as JSON and treats as fatal.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"go/token"
)

// Severity represents the severity level of a diagnostic
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	switch str {
	case "info":
		*s = Info
	case "warning":
		*s = Warning
	case "fatal":
		*s = Fatal
	default:
		*s = Error
	}
	return nil
}

// SourceLocation represents a location in Go source
type SourceLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Length int    `json:"length"`
}

// LocationFromPosition converts a go/token position into a SourceLocation
func LocationFromPosition(pos token.Position, length int) SourceLocation {
	return SourceLocation{
		File:   pos.Filename,
		Line:   pos.Line,
		Column: pos.Column,
		Length: length,
	}
}

// String renders the location as file:line:column
func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ErrorContext contains the source lines surrounding a diagnostic
type ErrorContext struct {
	SourceLines []string  `json:"source_lines"`
	FirstLine   int       `json:"first_line"`
	Highlight   Highlight `json:"highlight"`
}

// Highlight specifies which part of the context to underline
type Highlight struct {
	Line  int `json:"line"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// FixSuggestion describes a possible fix for a diagnostic
type FixSuggestion struct {
	Description string  `json:"description"`
	OldCode     string  `json:"old_code,omitempty"`
	NewCode     string  `json:"new_code,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Note points at a secondary location related to a diagnostic
type Note struct {
	Message  string         `json:"message"`
	Location SourceLocation `json:"location"`
}

// CompilerError is a single generator diagnostic
type CompilerError struct {
	Phase      string         // "loader", "deriver", "codegen", "build"
	Code       string         // "E001", "E002", ...
	Message    string         // Human-readable message
	Record     string         // Name of the annotated type, if any
	Location   SourceLocation // File, line, column
	Severity   Severity
	Context    ErrorContext
	Suggestion *FixSuggestion
	Notes      []Note
}

// Error implements the error interface
func (e CompilerError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Code, e.Message)
}

// NewCompilerError creates a new CompilerError
func NewCompilerError(phase, code, message string, location SourceLocation, severity Severity) CompilerError {
	return CompilerError{
		Phase:    phase,
		Code:     code,
		Message:  message,
		Location: location,
		Severity: severity,
	}
}

// ForRecord attributes the diagnostic to an annotated type
func (e CompilerError) ForRecord(name string) CompilerError {
	e.Record = name
	return e
}

// WithContext attaches source context
func (e CompilerError) WithContext(ctx ErrorContext) CompilerError {
	e.Context = ctx
	return e
}

// WithSuggestion attaches a fix suggestion
func (e CompilerError) WithSuggestion(suggestion FixSuggestion) CompilerError {
	e.Suggestion = &suggestion
	return e
}

// WithNote attaches a note about a related location
func (e CompilerError) WithNote(message string, location SourceLocation) CompilerError {
	notes := make([]Note, len(e.Notes), len(e.Notes)+1)
	copy(notes, e.Notes)
	e.Notes = append(notes, Note{Message: message, Location: location})
	return e
}

// MarshalJSON implements json.Marshaler
func (e CompilerError) MarshalJSON() ([]byte, error) {
	notes := e.Notes
	if notes == nil {
		notes = []Note{}
	}
	return json.Marshal(struct {
		Phase      string         `json:"phase"`
		Code       string         `json:"code"`
		Title      string         `json:"title"`
		Message    string         `json:"message"`
		Record     string         `json:"record,omitempty"`
		Severity   Severity       `json:"severity"`
		Location   SourceLocation `json:"location"`
		Context    ErrorContext   `json:"context"`
		Suggestion *FixSuggestion `json:"suggestion"`
		Notes      []Note         `json:"notes"`
	}{
		Phase:      e.Phase,
		Code:       e.Code,
		Title:      Title(e.Code),
		Message:    e.Message,
		Record:     e.Record,
		Severity:   e.Severity,
		Location:   e.Location,
		Context:    e.Context,
		Suggestion: e.Suggestion,
		Notes:      notes,
	})
}

// IsError returns true if the diagnostic is at Error or Fatal severity
func (e CompilerError) IsError() bool {
	return e.Severity == Error || e.Severity == Fatal
}

// IsWarning returns true if the diagnostic is at Warning severity
func (e CompilerError) IsWarning() bool {
	return e.Severity == Warning
}

// As reports whether err is, or wraps, a CompilerError and returns it
func As(err error) (CompilerError, bool) {
	var ce CompilerError
	ok := stderrors.As(err, &ce)
	return ce, ok
}
