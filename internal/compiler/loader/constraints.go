package loader

import (
	goast "go/ast"
	"go/build/constraint"
	"go/token"
	"strings"

	"github.com/structarray/structarray/compiler/errors"
)

// Operating systems and architectures recognized in file name suffixes, as
// listed by `go tool dist list`.
var (
	knownOS = map[string]bool{
		"aix": true, "android": true, "darwin": true, "dragonfly": true,
		"freebsd": true, "hurd": true, "illumos": true, "ios": true,
		"js": true, "linux": true, "nacl": true, "netbsd": true,
		"openbsd": true, "plan9": true, "solaris": true, "wasip1": true,
		"windows": true, "zos": true,
	}
	knownArch = map[string]bool{
		"386": true, "amd64": true, "amd64p32": true, "arm": true,
		"armbe": true, "arm64": true, "arm64be": true, "loong64": true,
		"mips": true, "mipsle": true, "mips64": true, "mips64le": true,
		"mips64p32": true, "mips64p32le": true, "ppc": true, "ppc64": true,
		"ppc64le": true, "riscv": true, "riscv64": true, "s390": true,
		"s390x": true, "sparc": true, "sparc64": true, "wasm": true,
	}
)

// fileConstraint returns the build constraint a file is compiled under: its
// //go:build line joined with the GOOS and GOARCH implied by its name.
func fileConstraint(fset *token.FileSet, name string, file *goast.File) (string, error) {
	var exprs []constraint.Expr

	for _, group := range file.Comments {
		if group.Pos() >= file.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return "", errors.NewCompilerError(errors.PhaseLoader, errors.ErrParse,
					"invalid //go:build line: "+err.Error(),
					errors.LocationFromPosition(fset.Position(c.Pos()), len(c.Text)), errors.Error)
			}
			exprs = append(exprs, expr)
		}
	}

	for _, tag := range nameTags(name) {
		if len(exprs) == 1 && exprs[0].String() == tag {
			continue
		}
		exprs = append(exprs, &constraint.TagExpr{Tag: tag})
	}

	return joinConstraints(exprs...), nil
}

// nameTags returns the GOOS and GOARCH tags of a file name such as
// vector_linux_amd64.go. The part before the first underscore never counts.
func nameTags(name string) []string {
	name = strings.TrimSuffix(name, ".go")
	i := strings.Index(name, "_")
	if i < 0 {
		return nil
	}
	parts := strings.Split(name[i:], "_")
	n := len(parts)
	if n >= 2 && knownOS[parts[n-2]] && knownArch[parts[n-1]] {
		return []string{parts[n-2], parts[n-1]}
	}
	if knownOS[parts[n-1]] || knownArch[parts[n-1]] {
		return []string{parts[n-1]}
	}
	return nil
}

func joinConstraints(exprs ...constraint.Expr) string {
	var joined constraint.Expr
	for _, e := range exprs {
		if joined == nil {
			joined = e
			continue
		}
		joined = &constraint.AndExpr{X: joined, Y: e}
	}
	if joined == nil {
		return ""
	}
	return joined.String()
}
