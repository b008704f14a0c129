package errors

// Diagnostic codes. E001-E009 are raised while validating annotated types,
// E010 and up by loading, generating and writing output.
const (
	ErrUnsupportedShape = "E001"
	ErrEmptyRecord      = "E002"
	ErrMixedFieldTypes  = "E003"
	ErrMethodCollision  = "E004"
	ErrTypeNotFound     = "E005"

	ErrParse            = "E010"
	ErrMultiplePackages = "E011"
	ErrNoGoFiles        = "E012"
	ErrUnresolvedImport = "E013"
	ErrFormatOutput     = "E020"
	ErrWriteOutput      = "E021"
	ErrStaleOutput      = "E022"
	ErrImportConflict   = "E023"
	ErrConstraintMix    = "E024"
)

// Phase names attached to diagnostics
const (
	PhaseLoader  = "loader"
	PhaseDeriver = "deriver"
	PhaseCodegen = "codegen"
	PhaseBuild   = "build"
)

var codeTitles = map[string]string{
	ErrUnsupportedShape: "unsupported shape",
	ErrEmptyRecord:      "empty struct",
	ErrMixedFieldTypes:  "mixed field types",
	ErrMethodCollision:  "method name collision",
	ErrTypeNotFound:     "type not found",
	ErrParse:            "parse error",
	ErrMultiplePackages: "multiple packages",
	ErrNoGoFiles:        "no Go files",
	ErrUnresolvedImport: "unresolved import",
	ErrFormatOutput:     "invalid generated code",
	ErrWriteOutput:      "write failed",
	ErrStaleOutput:      "stale output",
	ErrImportConflict:   "import conflict",
	ErrConstraintMix:    "build constraint conflict",
}

// Title returns a short human-readable name for a diagnostic code
func Title(code string) string {
	if t, ok := codeTitles[code]; ok {
		return t
	}
	return "error"
}
