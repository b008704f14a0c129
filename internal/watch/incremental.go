package watch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/structarray/structarray/internal/tooling/build"
)

// Rebuilder reruns generation for the packages touched by a batch of changes.
// Batches are handled one at a time.
type Rebuilder struct {
	mu       sync.Mutex
	system   *build.System
	logger   *zap.Logger
	onResult func(*build.Result, error)
}

// NewRebuilder creates a Rebuilder. onResult receives the outcome of every
// rebuild, including runs that failed outright.
func NewRebuilder(system *build.System, logger *zap.Logger, onResult func(*build.Result, error)) *Rebuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebuilder{system: system, logger: logger, onResult: onResult}
}

// ChangedDirs maps changed files to their package directories, sorted and
// without duplicates
func ChangedDirs(files []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Handle regenerates the packages containing files
func (r *Rebuilder) Handle(ctx context.Context, files []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dirs := ChangedDirs(files)
	for _, dir := range dirs {
		r.system.Invalidate(dir)
	}

	r.logger.Debug("rebuilding", zap.Strings("dirs", dirs), zap.Int("files", len(files)))
	result, err := r.system.Run(ctx, dirs)
	if r.onResult != nil {
		r.onResult(result, err)
	}
	return err
}
