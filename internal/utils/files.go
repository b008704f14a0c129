package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindPackageDirs recursively finds directories under root that contain at
// least one non-test .go file. Hidden directories and those named testdata
// or vendor, or starting with "_", are skipped as the go tool does.
func FindPackageDirs(root string) ([]string, error) {
	seen := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) == ".go" && !strings.HasSuffix(name, "_test.go") {
			seen[filepath.Dir(path)] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// ExpandPatterns turns command-line package patterns into directories. A
// pattern ending in "/..." matches every package directory below it; any
// other pattern names a single directory. Duplicates are removed and the
// input order is kept.
func ExpandPatterns(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, p := range patterns {
		if root, ok := strings.CutSuffix(p, "..."); ok {
			root = strings.TrimSuffix(root, "/")
			if root == "" {
				root = "."
			}
			found, err := FindPackageDirs(root)
			if err != nil {
				return nil, err
			}
			for _, d := range found {
				add(d)
			}
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			// Allow naming a file, as $GOFILE does under go generate.
			p = filepath.Dir(p)
		}
		add(p)
	}

	return dirs, nil
}
