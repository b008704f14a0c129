// Package loader reads one Go package directory and lowers the type
// declarations marked for array derivation into ast.Record descriptors.
package loader

import (
	"fmt"
	goast "go/ast"
	"go/build"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/ast"
	"github.com/structarray/structarray/internal/utils"
)

// Directive marks a type declaration for derivation when it appears as a
// line of the declaration's doc comment.
const Directive = "//structarray:derive"

// Options controls which declarations are loaded
type Options struct {
	// Types names declarations to derive in addition to the annotated ones
	Types []string
	// OutputFile is the generated file name, skipped while loading
	OutputFile string
	// BuildContext evaluates build constraints; build.Default when nil
	BuildContext *build.Context
}

// Package is the result of loading one directory
type Package struct {
	Dir     string
	Name    string
	Files   []string
	Records []*ast.Record
}

// LoadDir parses the non-test Go files in dir and returns the records to
// derive, in source order.
func LoadDir(dir string, opts Options) (*Package, error) {
	bctx := opts.BuildContext
	if bctx == nil {
		bctx = &build.Default
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory %s: %w", dir, err)
	}

	fset := token.NewFileSet()
	pkg := &Package{Dir: dir}
	var files []*goast.File
	var constraints []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if name == opts.OutputFile {
			continue
		}
		if match, err := bctx.MatchFile(dir, name); err != nil || !match {
			continue
		}

		path := filepath.Join(dir, name)
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, parseError(path, err)
		}
		if goast.IsGenerated(file) {
			continue
		}
		fc, err := fileConstraint(fset, name, file)
		if err != nil {
			return nil, err
		}

		if pkg.Name == "" {
			pkg.Name = file.Name.Name
		} else if file.Name.Name != pkg.Name {
			loc := errors.LocationFromPosition(fset.Position(file.Name.Pos()), len(file.Name.Name))
			return nil, errors.NewCompilerError(errors.PhaseLoader, errors.ErrMultiplePackages,
				fmt.Sprintf("found packages %s and %s in %s", pkg.Name, file.Name.Name, dir),
				loc, errors.Error)
		}

		files = append(files, file)
		constraints = append(constraints, fc)
		pkg.Files = append(pkg.Files, path)
	}

	if len(files) == 0 {
		return nil, errors.NewCompilerError(errors.PhaseLoader, errors.ErrNoGoFiles,
			fmt.Sprintf("no buildable Go source files in %s", dir),
			errors.SourceLocation{File: dir}, errors.Error)
	}

	requested := make(map[string]bool, len(opts.Types))
	for _, name := range opts.Types {
		requested[name] = true
	}
	found := make(map[string]bool)
	var declared []string
	scope := packageScope(files)

	for i, file := range files {
		imports := fileImports(file)
		for _, decl := range file.Decls {
			gen, ok := decl.(*goast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*goast.TypeSpec)
				declared = append(declared, ts.Name.Name)
				if !requested[ts.Name.Name] && !hasDirective(gen, ts) {
					continue
				}
				if found[ts.Name.Name] {
					continue
				}
				found[ts.Name.Name] = true

				rec, err := lower(fset, pkg.Name, ts, imports, scope)
				if err != nil {
					return nil, err
				}
				rec.Constraint = constraints[i]
				pkg.Records = append(pkg.Records, rec)
			}
		}
	}

	var missing []string
	for name := range requested {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		ce := errors.NewCompilerError(errors.PhaseLoader, errors.ErrTypeNotFound,
			fmt.Sprintf("type %s not found in package %s", strings.Join(missing, ", "), pkg.Name),
			errors.SourceLocation{File: dir}, errors.Error)
		if similar := utils.FindSimilar(missing[0], declared, 3); len(similar) > 0 {
			ce = ce.WithSuggestion(errors.FixSuggestion{
				Description: fmt.Sprintf("did you mean %s?", strings.Join(similar, ", ")),
				OldCode:     missing[0],
				NewCode:     similar[0],
				Confidence:  0.7,
			})
		}
		return nil, ce
	}

	return pkg, nil
}

// hasDirective reports whether the doc comment of the spec, or of an
// ungrouped declaration, carries the derive directive.
func hasDirective(gen *goast.GenDecl, ts *goast.TypeSpec) bool {
	groups := []*goast.CommentGroup{ts.Doc}
	if !gen.Lparen.IsValid() {
		groups = append(groups, gen.Doc)
	}
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if strings.TrimRight(c.Text, " \t") == Directive {
				return true
			}
		}
	}
	return false
}

func lower(fset *token.FileSet, pkgName string, ts *goast.TypeSpec, imports []fileImport, scope map[string]bool) (*ast.Record, error) {
	rec := &ast.Record{
		Name:    ts.Name.Name,
		Package: pkgName,
		Pos:     fset.Position(ts.Name.Pos()),
	}

	if ts.TypeParams != nil {
		local := make(map[string]bool, len(scope)+len(ts.TypeParams.List))
		for name := range scope {
			local[name] = true
		}
		for _, f := range ts.TypeParams.List {
			constraint := types.ExprString(f.Type)
			for _, n := range f.Names {
				rec.TypeParams = append(rec.TypeParams, ast.TypeParam{Name: n.Name, Constraint: constraint})
				local[n.Name] = true
			}
		}
		scope = local
	}

	if ts.Assign.IsValid() {
		rec.Shape = ast.ShapeAlias
		return rec, nil
	}

	st, ok := ts.Type.(*goast.StructType)
	if !ok {
		if _, isIface := ts.Type.(*goast.InterfaceType); isIface {
			rec.Shape = ast.ShapeInterface
		} else {
			rec.Shape = ast.ShapeNamed
			rec.Kind = kindOf(ts.Type)
		}
		return rec, nil
	}

	rec.Shape = ast.ShapeStruct
	var last goast.Expr
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			rec.Shape = ast.ShapeEmbedded
			continue
		}
		typ := types.ExprString(f.Type)
		for _, n := range f.Names {
			rec.Fields = append(rec.Fields, ast.Field{
				Name:    n.Name,
				Type:    typ,
				Pos:     fset.Position(n.Pos()),
				TypePos: fset.Position(f.Type.Pos()),
			})
		}
		last = f.Type
	}

	if rec.Shape == ast.ShapeStruct && last != nil {
		imps, err := resolveImports(fset, last, imports, scope)
		if err != nil {
			return nil, err
		}
		rec.Imports = imps
	}

	return rec, nil
}

// kindOf names the kind of a non-struct type expression for diagnostics
func kindOf(expr goast.Expr) string {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name
	case *goast.ArrayType:
		if t.Len == nil {
			return "slice"
		}
		return "array"
	case *goast.MapType:
		return "map"
	case *goast.FuncType:
		return "func"
	case *goast.ChanType:
		return "chan"
	case *goast.StarExpr:
		return "pointer"
	case *goast.ParenExpr:
		return kindOf(t.X)
	default:
		return types.ExprString(expr)
	}
}

func parseError(path string, err error) error {
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		return errors.NewCompilerError(errors.PhaseLoader, errors.ErrParse, first.Msg,
			errors.LocationFromPosition(first.Pos, 0), errors.Error)
	}
	return fmt.Errorf("failed to parse %s: %w", path, err)
}
