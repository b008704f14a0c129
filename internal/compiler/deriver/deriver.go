// Package deriver validates annotated records and plans the array accessor
// methods generated for them.
//
// A record qualifies when it is a struct whose fields all carry names and
// share one declared type. The type of the last field is the reference;
// every earlier field must spell exactly the same type expression.
package deriver

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/ast"
)

// Options selects which methods are planned and what they are called
type Options struct {
	AsArrayMethod string
	ToArrayMethod string
	// ToArray enables the by-value method. When false only the pointer
	// returning method is generated.
	ToArray bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		AsArrayMethod: "AsArray",
		ToArrayMethod: "ToArray",
		ToArray:       true,
	}
}

// Validate checks that the method names are usable identifiers
func (o Options) Validate() error {
	if !token.IsIdentifier(o.AsArrayMethod) {
		return fmt.Errorf("as_array_method %q is not a valid Go identifier", o.AsArrayMethod)
	}
	if !o.ToArray {
		return nil
	}
	if !token.IsIdentifier(o.ToArrayMethod) {
		return fmt.Errorf("to_array_method %q is not a valid Go identifier", o.ToArrayMethod)
	}
	if o.AsArrayMethod == o.ToArrayMethod {
		return fmt.Errorf("as_array_method and to_array_method are both %q", o.AsArrayMethod)
	}
	return nil
}

// Method is one planned method
type Method struct {
	Name string
	Doc  string
}

// Plan is everything the code generator needs to emit one record's methods
type Plan struct {
	Record       *ast.Record
	Receiver     string
	ReceiverType string
	ElementType  string
	FieldNames   []string
	AsArray      Method
	// ToArray is nil when the by-value method is disabled
	ToArray *Method
}

// Len returns the array length, which is the number of fields
func (p *Plan) Len() int {
	return len(p.FieldNames)
}

// Derive validates rec and returns the plan for its methods. Validation
// stops at the first violation, which is returned as a errors.CompilerError.
func Derive(rec *ast.Record, opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if rec.Shape != ast.ShapeStruct {
		return nil, unsupportedShape(rec)
	}
	if f, ok := rec.Field("_"); ok {
		return nil, newError(rec, errors.ErrUnsupportedShape,
			fmt.Sprintf("structarray can only be used with structs: %s is a struct with a blank field", rec.Name),
			f.Pos, len(f.Name))
	}

	if len(rec.Fields) == 0 {
		return nil, newError(rec, errors.ErrEmptyRecord,
			fmt.Sprintf("struct %s has no fields", rec.Name), rec.Pos, len(rec.Name))
	}

	ref := rec.Fields[len(rec.Fields)-1]
	for _, f := range rec.Fields[:len(rec.Fields)-1] {
		if f.Type != ref.Type {
			return nil, mixedTypes(rec, f, ref)
		}
	}

	plan := &Plan{
		Record:       rec,
		Receiver:     receiverName(rec, ref.Type),
		ReceiverType: rec.ReceiverType(),
		ElementType:  ref.Type,
		FieldNames:   rec.FieldNames(),
		AsArray: Method{
			Name: opts.AsArrayMethod,
			Doc:  fmt.Sprintf("%s represents %s as array.", opts.AsArrayMethod, rec.Name),
		},
	}
	if opts.ToArray {
		plan.ToArray = &Method{
			Name: opts.ToArrayMethod,
			Doc:  fmt.Sprintf("%s converts %s to array.", opts.ToArrayMethod, rec.Name),
		}
	}

	if err := checkCollisions(rec, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func newError(rec *ast.Record, code, msg string, pos token.Position, length int) errors.CompilerError {
	return errors.NewCompilerError(errors.PhaseDeriver, code, msg,
		errors.LocationFromPosition(pos, length), errors.Error).ForRecord(rec.Name)
}

func unsupportedShape(rec *ast.Record) error {
	var what string
	switch rec.Shape {
	case ast.ShapeEmbedded:
		what = "a struct with an embedded field"
	case ast.ShapeInterface:
		what = "an interface"
	case ast.ShapeAlias:
		what = "a type alias"
	default:
		what = "a named non-struct type"
		if rec.Kind != "" {
			what = fmt.Sprintf("a named %s type", rec.Kind)
		}
	}
	return newError(rec, errors.ErrUnsupportedShape,
		fmt.Sprintf("structarray can only be used with structs: %s is %s", rec.Name, what),
		rec.Pos, len(rec.Name))
}

func mixedTypes(rec *ast.Record, field, ref ast.Field) error {
	msg := fmt.Sprintf("fields in struct %s do not all have the same type: %s is %s, expected %s",
		rec.Name, field.Name, field.Type, ref.Type)

	err := newError(rec, errors.ErrMixedFieldTypes, msg, field.TypePos, len(field.Type)).
		WithNote(fmt.Sprintf("expected type %s is taken from the last field, %s", ref.Type, ref.Name),
			errors.LocationFromPosition(ref.TypePos, len(ref.Type))).
		WithSuggestion(errors.FixSuggestion{
			Description: fmt.Sprintf("declare %s as %s", field.Name, ref.Type),
			OldCode:     field.Name + " " + field.Type,
			NewCode:     field.Name + " " + ref.Type,
			Confidence:  0.7,
		})
	return err
}

func checkCollisions(rec *ast.Record, plan *Plan) error {
	methods := []string{plan.AsArray.Name}
	if plan.ToArray != nil {
		methods = append(methods, plan.ToArray.Name)
	}
	for _, m := range methods {
		if f, ok := rec.Field(m); ok {
			return newError(rec, errors.ErrMethodCollision,
				fmt.Sprintf("struct %s has a field named %s, which clashes with the generated method", rec.Name, m),
				f.Pos, len(f.Name))
		}
	}
	return nil
}

// receiverName picks the conventional one-letter receiver. Names used by
// type parameters or inside the element type are avoided, since the method
// bodies mention both.
func receiverName(rec *ast.Record, elemType string) string {
	taken := make(map[string]bool, len(rec.TypeParams))
	for _, tp := range rec.TypeParams {
		taken[tp.Name] = true
	}
	notIdent := func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	}
	for _, word := range strings.FieldsFunc(elemType, notIdent) {
		taken[word] = true
	}

	candidates := []string{"r", "recv"}
	if first, _ := utf8.DecodeRuneInString(rec.Name); unicode.IsLetter(first) {
		candidates = append([]string{strings.ToLower(string(first))}, candidates...)
	}
	for _, c := range candidates {
		if !taken[c] {
			return c
		}
	}
	return "_r"
}
