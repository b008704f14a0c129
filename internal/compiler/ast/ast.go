// Package ast defines the record descriptors the deriver works on: a
// language-neutral view of an annotated Go type declaration, lowered from
// go/ast by the loader.
package ast

import (
	"go/token"
	"path"
	"strconv"
	"strings"
)

// Shape classifies the declaration an annotation was attached to
type Shape int

const (
	// ShapeStruct is a struct whose fields all carry names
	ShapeStruct Shape = iota
	// ShapeEmbedded is a struct with at least one embedded (unnamed) field
	ShapeEmbedded
	// ShapeInterface is an interface type
	ShapeInterface
	// ShapeNamed is any other defined type (int, func, map, array, ...)
	ShapeNamed
	// ShapeAlias is a type alias
	ShapeAlias
)

// String describes the shape as it appears in diagnostics
func (s Shape) String() string {
	switch s {
	case ShapeStruct:
		return "struct"
	case ShapeEmbedded:
		return "struct with embedded field"
	case ShapeInterface:
		return "interface"
	case ShapeNamed:
		return "named non-struct type"
	case ShapeAlias:
		return "type alias"
	default:
		return "unknown"
	}
}

// Import is an import spec referenced by a field type
type Import struct {
	Name string // explicit import name, empty when not renamed
	Path string
}

// Qualifier returns the identifier code uses to refer to the package
func (i Import) Qualifier() string {
	if i.Name != "" {
		return i.Name
	}
	return ImportName(i.Path)
}

// ImportName guesses the package name of an import path: the last path
// element, skipping a major version suffix and dropping a "go-" prefix or a
// ".vN" suffix.
func ImportName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	if i := strings.Index(base, ".v"); i > 0 {
		if _, err := strconv.Atoi(base[i+2:]); err == nil {
			base = base[:i]
		}
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(base, "-go")
	return strings.ReplaceAll(base, "-", "")
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	n, err := strconv.Atoi(elem[1:])
	return err == nil && n >= 2
}

// Field is one named field, in declaration order
type Field struct {
	Name string
	// Type is the canonical printed type expression. Two fields have the
	// same type exactly when their Type strings are equal.
	Type string
	Pos  token.Position
	// TypePos is the position of the type expression
	TypePos token.Position
}

// TypeParam is one declared type parameter of a generic struct
type TypeParam struct {
	Name       string
	Constraint string
}

// Record describes one annotated type declaration
type Record struct {
	Name       string
	Package    string
	Shape      Shape
	Kind       string // underlying kind for ShapeNamed, e.g. "int" or "map"
	TypeParams []TypeParam
	Fields     []Field
	Imports    []Import
	// Constraint is the build constraint of the declaring file, from its
	// //go:build line and GOOS/GOARCH file name suffix; empty when none.
	Constraint string
	Pos        token.Position
}

// FieldNames returns the field names in declaration order
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the first field called name
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ReceiverType returns the type as written in a method receiver, including
// type parameter names for generic records (Pair[K, V]).
func (r *Record) ReceiverType() string {
	if len(r.TypeParams) == 0 {
		return r.Name
	}
	s := r.Name + "["
	for i, tp := range r.TypeParams {
		if i > 0 {
			s += ", "
		}
		s += tp.Name
	}
	return s + "]"
}
