// Package codegen renders derivation plans as a gofmt-formatted Go file.
package codegen

import (
	"bytes"
	"fmt"
	"go/build/constraint"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/ast"
	"github.com/structarray/structarray/internal/compiler/deriver"
)

// DefaultFileSuffix names the generated file of a package: <pkg>_structarray.go
const DefaultFileSuffix = "_structarray.go"

// Options controls the generated file
type Options struct {
	// Command is named in the generated-code header
	Command string
	// BuildTags, when set, is emitted as a //go:build constraint, joined
	// with the constraint of the files declaring the records
	BuildTags string
}

// Generator emits Go source for derivation plans
type Generator struct {
	opts    Options
	buf     *bytes.Buffer
	indent  int
	imports map[string]ast.Import
}

// NewGenerator creates a new code generator
func NewGenerator(opts Options) *Generator {
	if opts.Command == "" {
		opts.Command = "structarray"
	}
	return &Generator{
		opts:    opts,
		buf:     &bytes.Buffer{},
		imports: make(map[string]ast.Import),
	}
}

// OutputFileName returns the configured file name, or the default derived
// from the package name.
func OutputFileName(pkgName, configured string) string {
	if configured != "" {
		return configured
	}
	return pkgName + DefaultFileSuffix
}

// GenerateFile renders the methods of every plan into one file of package
// pkgName. Plans are emitted in the order given.
func (g *Generator) GenerateFile(pkgName string, plans []*deriver.Plan) ([]byte, error) {
	g.reset()

	for _, p := range plans {
		if err := g.addImports(p.Record); err != nil {
			return nil, err
		}
	}
	buildLine, err := g.buildConstraint(plans)
	if err != nil {
		return nil, err
	}

	g.writeLine("// Code generated by %s. DO NOT EDIT.", g.opts.Command)
	g.writeLine("")
	if buildLine != "" {
		g.writeLine("//go:build %s", buildLine)
		g.writeLine("")
	}
	g.writeLine("package %s", pkgName)
	g.generateImports()

	for _, p := range plans {
		g.writeLine("")
		g.generateAsArray(p)
		if p.ToArray != nil {
			g.writeLine("")
			g.generateToArray(p)
		}
	}

	src, err := format.Source(g.buf.Bytes())
	if err != nil {
		return nil, errors.NewCompilerError(errors.PhaseCodegen, errors.ErrFormatOutput,
			fmt.Sprintf("generated code for package %s does not parse: %v", pkgName, err),
			errors.SourceLocation{}, errors.Fatal)
	}
	return src, nil
}

// generateAsArray writes the pointer-returning method
func (g *Generator) generateAsArray(p *deriver.Plan) {
	elems := make([]string, len(p.FieldNames))
	for i, name := range p.FieldNames {
		elems[i] = "&" + p.Receiver + "." + name
	}
	arrayType := fmt.Sprintf("[%d]*%s", p.Len(), p.ElementType)

	g.writeLine("// %s", p.AsArray.Doc)
	g.writeLine("func (%s *%s) %s() %s {", p.Receiver, p.ReceiverType, p.AsArray.Name, arrayType)
	g.indent++
	g.writeLine("return %s{%s}", arrayType, strings.Join(elems, ", "))
	g.indent--
	g.writeLine("}")
}

// generateToArray writes the by-value method
func (g *Generator) generateToArray(p *deriver.Plan) {
	elems := make([]string, len(p.FieldNames))
	for i, name := range p.FieldNames {
		elems[i] = p.Receiver + "." + name
	}
	arrayType := fmt.Sprintf("[%d]%s", p.Len(), p.ElementType)

	g.writeLine("// %s", p.ToArray.Doc)
	g.writeLine("func (%s %s) %s() %s {", p.Receiver, p.ReceiverType, p.ToArray.Name, arrayType)
	g.indent++
	g.writeLine("return %s{%s}", arrayType, strings.Join(elems, ", "))
	g.indent--
	g.writeLine("}")
}

// IsGenerated reports whether content starts with a generated-code header
func IsGenerated(content []byte) bool {
	line, _, _ := bytes.Cut(content, []byte("\n"))
	return bytes.HasPrefix(line, []byte("// Code generated ")) && bytes.HasSuffix(bytes.TrimSpace(line), []byte("DO NOT EDIT."))
}

// buildConstraint joins the configured tags with the constraint shared by
// the files declaring the records. Records under different constraints
// cannot share one file.
func (g *Generator) buildConstraint(plans []*deriver.Plan) (string, error) {
	var exprs []constraint.Expr
	if g.opts.BuildTags != "" {
		expr, err := constraint.Parse("//go:build " + g.opts.BuildTags)
		if err != nil {
			return "", fmt.Errorf("invalid build tags %q: %w", g.opts.BuildTags, err)
		}
		exprs = append(exprs, expr)
	}

	if len(plans) > 0 {
		first := plans[0].Record
		for _, p := range plans[1:] {
			if p.Record.Constraint == first.Constraint {
				continue
			}
			return "", errors.NewCompilerError(errors.PhaseCodegen, errors.ErrConstraintMix,
				fmt.Sprintf("%s and %s are declared under different build constraints (%s and %s)",
					first.Name, p.Record.Name, describeConstraint(first.Constraint), describeConstraint(p.Record.Constraint)),
				errors.LocationFromPosition(p.Record.Pos, len(p.Record.Name)), errors.Error).ForRecord(p.Record.Name)
		}
		if first.Constraint != "" {
			expr, err := constraint.Parse("//go:build " + first.Constraint)
			if err != nil {
				return "", fmt.Errorf("invalid build constraint of %s: %w", first.Name, err)
			}
			exprs = append(exprs, expr)
		}
	}

	switch len(exprs) {
	case 0:
		return "", nil
	case 1:
		return exprs[0].String(), nil
	default:
		return (&constraint.AndExpr{X: exprs[0], Y: exprs[1]}).String(), nil
	}
}

func describeConstraint(c string) string {
	if c == "" {
		return "none"
	}
	return c
}

// addImports merges the record's imports, rejecting one qualifier bound to
// two different paths.
func (g *Generator) addImports(rec *ast.Record) error {
	for _, imp := range rec.Imports {
		key := imp.Path
		if imp.Name != "" {
			key = imp.Name + " " + imp.Path
		}
		for _, existing := range g.imports {
			if imp.Name != "." && existing.Qualifier() == imp.Qualifier() && existing.Path != imp.Path {
				return errors.NewCompilerError(errors.PhaseCodegen, errors.ErrImportConflict,
					fmt.Sprintf("package name %s refers to both %q and %q", imp.Qualifier(), existing.Path, imp.Path),
					errors.LocationFromPosition(rec.Pos, len(rec.Name)), errors.Error).ForRecord(rec.Name)
			}
		}
		g.imports[key] = imp
	}
	return nil
}

// generateImports writes the import block, standard library first
func (g *Generator) generateImports() {
	if len(g.imports) == 0 {
		return
	}

	var std, other []ast.Import
	for _, imp := range g.imports {
		if isStdlib(imp.Path) {
			std = append(std, imp)
		} else {
			other = append(other, imp)
		}
	}

	g.writeLine("")
	g.writeLine("import (")
	g.indent++
	g.writeImportGroup(std)
	if len(std) > 0 && len(other) > 0 {
		g.writeLine("")
	}
	g.writeImportGroup(other)
	g.indent--
	g.writeLine(")")
}

func (g *Generator) writeImportGroup(imports []ast.Import) {
	sort.Slice(imports, func(i, j int) bool {
		if imports[i].Path != imports[j].Path {
			return imports[i].Path < imports[j].Path
		}
		return imports[i].Name < imports[j].Name
	})
	for _, imp := range imports {
		if imp.Name != "" {
			g.writeLine("%s %s", imp.Name, strconv.Quote(imp.Path))
		} else {
			g.writeLine("%s", strconv.Quote(imp.Path))
		}
	}
}

// isStdlib reports whether the first path element lacks a dot
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// reset clears the generator state
func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
	g.imports = make(map[string]ast.Import)
}

// writeLine writes a formatted line with proper indentation
func (g *Generator) writeLine(format string, args ...interface{}) {
	if format == "" {
		g.buf.WriteString("\n")
		return
	}

	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("\t")
	}
	if len(args) > 0 {
		fmt.Fprintf(g.buf, format, args...)
	} else {
		g.buf.WriteString(format)
	}
	g.buf.WriteString("\n")
}
