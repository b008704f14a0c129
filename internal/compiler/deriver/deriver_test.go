package deriver

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/ast"
)

func field(name, typ string, line int) ast.Field {
	return ast.Field{
		Name:    name,
		Type:    typ,
		Pos:     token.Position{Filename: "rec.go", Line: line, Column: 2},
		TypePos: token.Position{Filename: "rec.go", Line: line, Column: 4},
	}
}

func structRecord(name string, fields ...ast.Field) *ast.Record {
	return &ast.Record{
		Name:   name,
		Shape:  ast.ShapeStruct,
		Fields: fields,
		Pos:    token.Position{Filename: "rec.go", Line: 3, Column: 6},
	}
}

func requireCode(t *testing.T, err error, code string) errors.CompilerError {
	t.Helper()
	require.Error(t, err)
	ce, ok := errors.As(err)
	require.True(t, ok, "expected CompilerError, got %T", err)
	assert.Equal(t, code, ce.Code)
	assert.Equal(t, errors.PhaseDeriver, ce.Phase)
	return ce
}

func TestDerive_ThreeIntFields(t *testing.T) {
	rec := structRecord("TestStruct",
		field("t1", "int32", 4),
		field("t2", "int32", 5),
		field("t3", "int32", 6),
	)

	plan, err := Derive(rec, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, plan.Len())
	assert.Equal(t, "int32", plan.ElementType)
	assert.Equal(t, []string{"t1", "t2", "t3"}, plan.FieldNames)
	assert.Equal(t, "t", plan.Receiver)
	assert.Equal(t, "TestStruct", plan.ReceiverType)

	assert.Equal(t, "AsArray", plan.AsArray.Name)
	assert.Equal(t, "AsArray represents TestStruct as array.", plan.AsArray.Doc)
	require.NotNil(t, plan.ToArray)
	assert.Equal(t, "ToArray", plan.ToArray.Name)
	assert.Equal(t, "ToArray converts TestStruct to array.", plan.ToArray.Doc)
}

func TestDerive_SingleField(t *testing.T) {
	plan, err := Derive(structRecord("Wrapper", field("V", "string", 4)), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Len())
	assert.Equal(t, "string", plan.ElementType)
}

func TestDerive_WithoutToArray(t *testing.T) {
	opts := DefaultOptions()
	opts.ToArray = false

	plan, err := Derive(structRecord("P", field("A", "int", 4), field("B", "int", 5)), opts)
	require.NoError(t, err)
	assert.Nil(t, plan.ToArray)
	assert.Equal(t, "AsArray", plan.AsArray.Name)
}

func TestDerive_CustomMethodNames(t *testing.T) {
	opts := Options{AsArrayMethod: "Refs", ToArrayMethod: "Values", ToArray: true}

	plan, err := Derive(structRecord("P", field("A", "int", 4)), opts)
	require.NoError(t, err)
	assert.Equal(t, "Refs represents P as array.", plan.AsArray.Doc)
	assert.Equal(t, "Values converts P to array.", plan.ToArray.Doc)
}

func TestDerive_UnsupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		rec  *ast.Record
		want string
	}{
		{
			name: "interface",
			rec:  &ast.Record{Name: "Shape", Shape: ast.ShapeInterface},
			want: "structarray can only be used with structs: Shape is an interface",
		},
		{
			name: "enum-like named int",
			rec:  &ast.Record{Name: "Color", Shape: ast.ShapeNamed, Kind: "int"},
			want: "structarray can only be used with structs: Color is a named int type",
		},
		{
			name: "named without kind",
			rec:  &ast.Record{Name: "Thing", Shape: ast.ShapeNamed},
			want: "structarray can only be used with structs: Thing is a named non-struct type",
		},
		{
			name: "embedded field",
			rec: &ast.Record{Name: "Wrapped", Shape: ast.ShapeEmbedded,
				Fields: []ast.Field{field("A", "int", 4)}},
			want: "structarray can only be used with structs: Wrapped is a struct with an embedded field",
		},
		{
			name: "alias",
			rec:  &ast.Record{Name: "Other", Shape: ast.ShapeAlias},
			want: "structarray can only be used with structs: Other is a type alias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.rec, DefaultOptions())
			ce := requireCode(t, err, errors.ErrUnsupportedShape)
			assert.Equal(t, tt.want, ce.Message)
			assert.Equal(t, tt.rec.Name, ce.Record)
		})
	}
}

func TestDerive_BlankField(t *testing.T) {
	tests := []struct {
		name string
		rec  *ast.Record
		line int
	}{
		{"leading", structRecord("S", field("_", "int", 4), field("A", "int", 5)), 4},
		{"trailing", structRecord("S", field("A", "int", 4), field("_", "int", 5)), 5},
		// Blank fields are rejected even when the types would not match.
		{"mixed", structRecord("S", field("A", "int", 4), field("_", "string", 5)), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.rec, DefaultOptions())
			ce := requireCode(t, err, errors.ErrUnsupportedShape)
			assert.Equal(t, "structarray can only be used with structs: S is a struct with a blank field", ce.Message)
			assert.Equal(t, tt.line, ce.Location.Line)
			assert.Equal(t, "S", ce.Record)
		})
	}
}

func TestDerive_EmptyStruct(t *testing.T) {
	_, err := Derive(structRecord("Empty"), DefaultOptions())
	ce := requireCode(t, err, errors.ErrEmptyRecord)
	assert.Equal(t, "struct Empty has no fields", ce.Message)
	assert.Equal(t, 3, ce.Location.Line)
}

func TestDerive_MixedTypes(t *testing.T) {
	rec := structRecord("Mixed",
		field("A", "int", 4),
		field("B", "int64", 5),
		field("C", "string", 6),
		field("D", "int", 7),
	)

	_, err := Derive(rec, DefaultOptions())
	ce := requireCode(t, err, errors.ErrMixedFieldTypes)

	// Only the first mismatch against the last field's type is reported.
	assert.Equal(t, "fields in struct Mixed do not all have the same type: B is int64, expected int", ce.Message)
	assert.Equal(t, 5, ce.Location.Line)
	assert.Equal(t, 4, ce.Location.Column)
	require.Len(t, ce.Notes, 1)
	assert.Equal(t, 7, ce.Notes[0].Location.Line)
	require.NotNil(t, ce.Suggestion)
	assert.Equal(t, "B int", ce.Suggestion.NewCode)
}

func TestDerive_ReferenceIsLastField(t *testing.T) {
	rec := structRecord("Tail",
		field("A", "float64", 4),
		field("B", "float64", 5),
		field("C", "float32", 6),
	)

	_, err := Derive(rec, DefaultOptions())
	ce := requireCode(t, err, errors.ErrMixedFieldTypes)
	assert.Contains(t, ce.Message, "A is float64, expected float32")
}

func TestDerive_SyntacticEquality(t *testing.T) {
	// Identical underlying types spelled differently are different.
	rec := structRecord("Bytes", field("A", "byte", 4), field("B", "uint8", 5))
	_, err := Derive(rec, DefaultOptions())
	requireCode(t, err, errors.ErrMixedFieldTypes)

	rec = structRecord("Slices", field("A", "[]map[string]int", 4), field("B", "[]map[string]int", 5))
	plan, err := Derive(rec, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "[]map[string]int", plan.ElementType)
}

func TestDerive_MethodCollision(t *testing.T) {
	rec := structRecord("Odd", field("AsArray", "int", 4), field("B", "int", 5))
	_, err := Derive(rec, DefaultOptions())
	ce := requireCode(t, err, errors.ErrMethodCollision)
	assert.Equal(t, 4, ce.Location.Line)

	// Disabling ToArray frees the name.
	rec = structRecord("Odd", field("ToArray", "int", 4))
	opts := DefaultOptions()
	opts.ToArray = false
	_, err = Derive(rec, opts)
	assert.NoError(t, err)
}

func TestDerive_ShapeCheckedBeforeFields(t *testing.T) {
	rec := &ast.Record{Name: "Iface", Shape: ast.ShapeInterface}
	_, err := Derive(rec, DefaultOptions())
	requireCode(t, err, errors.ErrUnsupportedShape)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"bad as name", Options{AsArrayMethod: "1x", ToArrayMethod: "ToArray", ToArray: true}, true},
		{"bad to name", Options{AsArrayMethod: "AsArray", ToArrayMethod: "to-array", ToArray: true}, true},
		{"bad to name ignored when disabled", Options{AsArrayMethod: "AsArray", ToArrayMethod: "", ToArray: false}, false},
		{"same names", Options{AsArrayMethod: "Fields", ToArrayMethod: "Fields", ToArray: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerive_InvalidOptionsIsPlainError(t *testing.T) {
	_, err := Derive(structRecord("P", field("A", "int", 4)), Options{AsArrayMethod: ""})
	require.Error(t, err)
	_, ok := errors.As(err)
	assert.False(t, ok)
}

func TestReceiverName(t *testing.T) {
	tests := []struct {
		name string
		rec  *ast.Record
		elem string
		want string
	}{
		{"first letter", &ast.Record{Name: "Vector"}, "float64", "v"},
		{"underscore name", &ast.Record{Name: "_hidden"}, "int", "r"},
		{"type param clash", &ast.Record{Name: "Trio", TypeParams: []ast.TypeParam{{Name: "t"}}}, "t", "r"},
		{"element type clash", &ast.Record{Name: "Temps"}, "t", "r"},
		{"both taken", &ast.Record{Name: "Rows"}, "map[r]r", "recv"},
		{"qualified type", &ast.Record{Name: "Timeouts"}, "time.Duration", "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, receiverName(tt.rec, tt.elem))
		})
	}
}

func TestDerive_GenericRecord(t *testing.T) {
	rec := structRecord("Pair", field("Left", "T", 4), field("Right", "T", 5))
	rec.TypeParams = []ast.TypeParam{{Name: "T", Constraint: "any"}}

	plan, err := Derive(rec, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Pair[T]", plan.ReceiverType)
	assert.Equal(t, "T", plan.ElementType)
	assert.Equal(t, "p", plan.Receiver)
}
