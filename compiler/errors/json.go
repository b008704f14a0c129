package errors

import (
	"encoding/json"
)

// JSONOutput is the document written by --json
type JSONOutput struct {
	Status   string          `json:"status"`
	Errors   []CompilerError `json:"errors"`
	Warnings []CompilerError `json:"warnings"`
	Summary  Summary         `json:"summary"`
}

// Summary contains diagnostic counts
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// FormatAsJSON formats a single diagnostic as indented JSON
func (e CompilerError) FormatAsJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewJSONOutput splits diagnostics into errors and warnings and derives the
// overall status.
func NewJSONOutput(diags []CompilerError) JSONOutput {
	out := JSONOutput{
		Errors:   []CompilerError{},
		Warnings: []CompilerError{},
	}
	for _, d := range diags {
		if d.IsError() {
			out.Errors = append(out.Errors, d)
		} else if d.IsWarning() {
			out.Warnings = append(out.Warnings, d)
		}
	}

	out.Status = "success"
	if len(out.Errors) > 0 {
		out.Status = "error"
	} else if len(out.Warnings) > 0 {
		out.Status = "warning"
	}

	out.Summary = Summary{
		ErrorCount:   len(out.Errors),
		WarningCount: len(out.Warnings),
		TotalCount:   len(diags),
	}
	return out
}

// FormatErrorsAsJSON formats a set of diagnostics as an indented JSON document
func FormatErrorsAsJSON(diags []CompilerError) (string, error) {
	data, err := json.MarshalIndent(NewJSONOutput(diags), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
