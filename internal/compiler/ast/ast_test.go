package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShape_String(t *testing.T) {
	tests := []struct {
		shape Shape
		want  string
	}{
		{ShapeStruct, "struct"},
		{ShapeEmbedded, "struct with embedded field"},
		{ShapeInterface, "interface"},
		{ShapeNamed, "named non-struct type"},
		{ShapeAlias, "type alias"},
		{Shape(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.shape.String())
	}
}

func TestRecord_ReceiverType(t *testing.T) {
	plain := &Record{Name: "Vector"}
	assert.Equal(t, "Vector", plain.ReceiverType())

	generic := &Record{
		Name: "Pair",
		TypeParams: []TypeParam{
			{Name: "K", Constraint: "comparable"},
			{Name: "V", Constraint: "any"},
		},
	}
	assert.Equal(t, "Pair[K, V]", generic.ReceiverType())
}

func TestRecord_Fields(t *testing.T) {
	rec := &Record{
		Name: "RGB",
		Fields: []Field{
			{Name: "R", Type: "uint8"},
			{Name: "G", Type: "uint8"},
			{Name: "B", Type: "uint8"},
		},
	}

	assert.Equal(t, []string{"R", "G", "B"}, rec.FieldNames())
	f, ok := rec.Field("G")
	assert.True(t, ok)
	assert.Equal(t, "uint8", f.Type)
	_, ok = rec.Field("A")
	assert.False(t, ok)
}

func TestImportName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"time", "time"},
		{"net/http", "http"},
		{"gopkg.in/yaml.v3", "yaml"},
		{"github.com/jackc/pgx/v5", "pgx"},
		{"github.com/mattn/go-sqlite3", "sqlite3"},
		{"github.com/fatih/color", "color"},
		{"example.com/foo-go", "foo"},
		{"example.com/v1", "v1"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ImportName(tt.path))
		})
	}
}

func TestImport_Qualifier(t *testing.T) {
	assert.Equal(t, "tm", Import{Name: "tm", Path: "time"}.Qualifier())
	assert.Equal(t, "pgx", Import{Path: "github.com/jackc/pgx/v5"}.Qualifier())
}
