package loader

import (
	"fmt"
	goast "go/ast"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/ast"
)

// fileImport is an import spec of the file declaring a record
type fileImport struct {
	name     string // explicit name, empty if not renamed
	path     string
	implicit string // package name guessed from the path
}

func fileImports(file *goast.File) []fileImport {
	var out []fileImport
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := fileImport{path: p, implicit: ast.ImportName(p)}
		if spec.Name != nil {
			imp.name = spec.Name.Name
		}
		out = append(out, imp)
	}
	return out
}

// qualifier returns the identifier the file uses for this import
func (fi fileImport) qualifier() string {
	if fi.name != "" {
		return fi.name
	}
	return fi.implicit
}

// packageScope returns the names declared at package level across files
func packageScope(files []*goast.File) map[string]bool {
	scope := make(map[string]bool)
	for _, file := range files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *goast.FuncDecl:
				if d.Recv == nil {
					scope[d.Name.Name] = true
				}
			case *goast.GenDecl:
				for _, spec := range d.Specs {
					switch sp := spec.(type) {
					case *goast.TypeSpec:
						scope[sp.Name.Name] = true
					case *goast.ValueSpec:
						for _, n := range sp.Names {
							scope[n.Name] = true
						}
					}
				}
			}
		}
	}
	return scope
}

// resolveImports finds the imports the element type expression needs: those
// referenced by package qualifiers, and the file's dot import when a bare
// identifier is declared neither in the package nor in the universe.
func resolveImports(fset *token.FileSet, expr goast.Expr, imports []fileImport, scope map[string]bool) ([]ast.Import, error) {
	var out []ast.Import
	seen := make(map[string]bool)
	var resolveErr error

	var dots []fileImport
	for _, imp := range imports {
		if imp.name == "." {
			dots = append(dots, imp)
		}
	}

	var visit func(n goast.Node) bool
	visit = func(n goast.Node) bool {
		if resolveErr != nil {
			return false
		}
		switch n := n.(type) {
		case *goast.Field:
			// parameter, field and method names are not type references
			goast.Inspect(n.Type, visit)
			return false
		case *goast.Ident:
			if scope[n.Name] || types.Universe.Lookup(n.Name) != nil || seen["."] {
				return false
			}
			switch len(dots) {
			case 0:
			case 1:
				seen["."] = true
				out = append(out, ast.Import{Name: ".", Path: dots[0].path})
			default:
				paths := make([]string, len(dots))
				for i, d := range dots {
					paths[i] = strconv.Quote(d.path)
				}
				resolveErr = errors.NewCompilerError(errors.PhaseLoader, errors.ErrUnresolvedImport,
					fmt.Sprintf("cannot tell which dot import declares %s used in field type: %s", n.Name, strings.Join(paths, ", ")),
					errors.LocationFromPosition(fset.Position(n.Pos()), len(n.Name)), errors.Error)
			}
			return false
		case *goast.SelectorExpr:
			id, ok := n.X.(*goast.Ident)
			if !ok {
				return true
			}
			if seen[id.Name] {
				return false
			}
			for _, imp := range imports {
				if imp.qualifier() != id.Name {
					continue
				}
				seen[id.Name] = true
				out = append(out, ast.Import{Name: imp.name, Path: imp.path})
				return false
			}
			resolveErr = errors.NewCompilerError(errors.PhaseLoader, errors.ErrUnresolvedImport,
				fmt.Sprintf("cannot resolve package %s used in field type %s", id.Name, n.Sel.Name),
				errors.LocationFromPosition(fset.Position(id.Pos()), len(id.Name)), errors.Error)
			return false
		}
		return true
	}
	goast.Inspect(expr, visit)

	return out, resolveErr
}
