package errors

// suggestFix returns a generic fix suggestion for a diagnostic code. The
// deriver attaches more specific suggestions itself where it can.
func suggestFix(err CompilerError) *FixSuggestion {
	switch err.Code {
	case ErrUnsupportedShape:
		return &FixSuggestion{
			Description: "only structs whose fields are all named can derive array accessors; remove the //structarray:derive directive",
			Confidence:  0.6,
		}
	case ErrEmptyRecord:
		return &FixSuggestion{
			Description: "add at least one field, or remove the //structarray:derive directive",
			Confidence:  0.7,
		}
	case ErrMixedFieldTypes:
		return &FixSuggestion{
			Description: "every field must be declared with the type of the last field",
			Confidence:  0.5,
		}
	case ErrMethodCollision:
		return &FixSuggestion{
			Description: "rename the field or choose other method names with as_array_method / to_array_method",
			Confidence:  0.8,
		}
	case ErrTypeNotFound:
		return &FixSuggestion{
			Description: "check the spelling of the name passed to --type",
			Confidence:  0.5,
		}
	case ErrStaleOutput:
		return &FixSuggestion{
			Description: "run structarray generate (or go generate) to refresh the file",
			Confidence:  1.0,
		}
	default:
		return nil
	}
}
