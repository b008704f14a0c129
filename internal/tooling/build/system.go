// Package build drives generation for a set of package directories: load,
// derive every annotated record, render, and write or verify the output.
package build

import (
	"context"
	"fmt"
	"go/build/constraint"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/structarray/structarray/compiler/errors"
	"github.com/structarray/structarray/internal/compiler/cache"
	"github.com/structarray/structarray/internal/compiler/codegen"
	"github.com/structarray/structarray/internal/compiler/deriver"
	"github.com/structarray/structarray/internal/compiler/loader"
)

// Mode selects what the system does with generated output
type Mode int

const (
	// ModeGenerate writes output files
	ModeGenerate Mode = iota
	// ModeCheck validates and reports stale output without writing
	ModeCheck
)

func (m Mode) String() string {
	switch m {
	case ModeGenerate:
		return "generate"
	case ModeCheck:
		return "check"
	default:
		return "unknown"
	}
}

// Options configures a System
type Options struct {
	Mode       Mode
	Types      []string
	OutputFile string
	BuildTags  string
	Command    string
	Deriver    deriver.Options
	MaxJobs    int
	// UseCache skips directories whose sources are unchanged since the last
	// successful run of this System.
	UseCache bool
}

// DefaultOptions returns sensible defaults
func DefaultOptions() *Options {
	return &Options{
		Mode:    ModeGenerate,
		Command: "structarray",
		Deriver: deriver.DefaultOptions(),
		MaxJobs: runtime.NumCPU(),
	}
}

// Status is the outcome for one directory
type Status int

const (
	StatusWritten Status = iota
	StatusUnchanged
	StatusCached
	StatusNoRecords
	StatusRemoved
	StatusUpToDate
	StatusStale
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusUnchanged:
		return "unchanged"
	case StatusCached:
		return "cached"
	case StatusNoRecords:
		return "no records"
	case StatusRemoved:
		return "removed"
	case StatusUpToDate:
		return "up to date"
	case StatusStale:
		return "stale"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DirResult reports what happened in one package directory
type DirResult struct {
	Dir        string
	Package    string
	OutputPath string
	Records    []string
	Status     Status
}

// Result contains the outcome of a run
type Result struct {
	Dirs         []DirResult
	Diagnostics  []errors.CompilerError
	ErrorCount   int
	WarningCount int
	Duration     time.Duration
}

// Success reports whether no directory produced an error diagnostic
func (r *Result) Success() bool {
	return r.ErrorCount == 0
}

// Count returns how many directories ended with the given status
func (r *Result) Count(status Status) int {
	n := 0
	for _, d := range r.Dirs {
		if d.Status == status {
			n++
		}
	}
	return n
}

// System coordinates generation. A System may be reused across runs, for
// example by watch mode, and is safe for one Run at a time.
type System struct {
	options *Options
	logger  *zap.Logger
	hasher  *cache.FileHasher
	sources *cache.SourceCache
}

// NewSystem creates a new build system
func NewSystem(opts *Options, logger *zap.Logger) (*System, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Deriver.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.BuildTags != "" {
		if _, err := constraint.Parse("//go:build " + opts.BuildTags); err != nil {
			return nil, fmt.Errorf("invalid build tags %q: %w", opts.BuildTags, err)
		}
	}
	if opts.MaxJobs < 1 {
		opts.MaxJobs = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &System{
		options: opts,
		logger:  logger,
		hasher:  cache.NewFileHasher(),
		sources: cache.NewSourceCache(),
	}, nil
}

// Run processes dirs concurrently. Diagnostics are returned in the Result;
// the error is reserved for failures unrelated to the sources, such as
// cancellation or an unreadable directory.
func (s *System) Run(ctx context.Context, dirs []string) (*Result, error) {
	start := time.Now()
	collector := errors.NewCollector()
	results := make([]DirResult, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.MaxJobs)

	for i, dir := range dirs {
		g.Go(func() error {
			res, err := s.processDir(ctx, dir, collector)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Dirs:        results,
		Diagnostics: collector.All(),
		Duration:    time.Since(start),
	}
	result.ErrorCount, result.WarningCount = collector.Counts()
	s.logger.Debug("run finished",
		zap.Stringer("mode", s.options.Mode),
		zap.Int("dirs", len(dirs)),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Invalidate forgets the cached source fingerprint of dir
func (s *System) Invalidate(dir string) {
	s.sources.Invalidate(filepath.Clean(dir))
}

func (s *System) processDir(ctx context.Context, dir string, collector *errors.Collector) (DirResult, error) {
	dir = filepath.Clean(dir)
	res := DirResult{Dir: dir}
	log := s.logger.With(zap.String("dir", dir))

	if err := ctx.Err(); err != nil {
		return res, err
	}

	pkg, err := loader.LoadDir(dir, loader.Options{
		Types:      s.options.Types,
		OutputFile: s.options.OutputFile,
	})
	if err != nil {
		return s.fail(res, err, collector, log)
	}
	res.Package = pkg.Name
	res.OutputPath = filepath.Join(dir, codegen.OutputFileName(pkg.Name, s.options.OutputFile))

	if len(pkg.Records) == 0 {
		log.Debug("no annotated types")
		return s.leftover(res, collector, log)
	}

	var fingerprint string
	if s.options.UseCache && s.options.Mode == ModeGenerate {
		fingerprint, err = s.hasher.Fingerprint(pkg.Files)
		if err != nil {
			return res, fmt.Errorf("failed to hash sources in %s: %w", dir, err)
		}
		if s.sources.Fresh(dir, fingerprint) {
			log.Debug("sources unchanged, skipping")
			res.Status = StatusCached
			return res, nil
		}
	}

	plans := make([]*deriver.Plan, 0, len(pkg.Records))
	failed := false
	for _, rec := range pkg.Records {
		res.Records = append(res.Records, rec.Name)
		plan, err := deriver.Derive(rec, s.options.Deriver)
		if err != nil {
			ce, ok := errors.As(err)
			if !ok {
				return res, err
			}
			log.Debug("derive failed", zap.String("type", rec.Name), zap.String("code", ce.Code))
			collector.Add(ce)
			failed = true
			continue
		}
		log.Debug("derived",
			zap.String("type", rec.Name),
			zap.String("element", plan.ElementType),
			zap.Int("len", plan.Len()))
		plans = append(plans, plan)
	}
	if failed {
		res.Status = StatusFailed
		return res, nil
	}

	gen := codegen.NewGenerator(codegen.Options{
		Command:   s.options.Command,
		BuildTags: s.options.BuildTags,
	})
	content, err := gen.GenerateFile(pkg.Name, plans)
	if err != nil {
		return s.fail(res, err, collector, log)
	}

	unchanged, err := s.hasher.Unchanged(res.OutputPath, content)
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", res.OutputPath, err)
	}

	switch {
	case s.options.Mode == ModeCheck && unchanged:
		res.Status = StatusUpToDate
	case s.options.Mode == ModeCheck:
		res.Status = StatusStale
		collector.Add(errors.NewCompilerError(errors.PhaseBuild, errors.ErrStaleOutput,
			fmt.Sprintf("%s is out of date", res.OutputPath),
			errors.SourceLocation{File: res.OutputPath}, errors.Error))
	case unchanged:
		res.Status = StatusUnchanged
		log.Debug("output unchanged", zap.String("file", res.OutputPath))
	default:
		if err := os.WriteFile(res.OutputPath, content, 0644); err != nil {
			collector.Add(errors.NewCompilerError(errors.PhaseBuild, errors.ErrWriteOutput,
				fmt.Sprintf("failed to write %s: %v", res.OutputPath, err),
				errors.SourceLocation{File: res.OutputPath}, errors.Error))
			res.Status = StatusFailed
			return res, nil
		}
		res.Status = StatusWritten
		log.Info("wrote generated file",
			zap.String("file", res.OutputPath),
			zap.Strings("types", res.Records))
	}

	if fingerprint != "" {
		s.sources.Store(dir, fingerprint)
	}
	return res, nil
}

// leftover handles a package without records. Output generated by an earlier
// run is removed, or reported as stale in check mode; any other file of that
// name is left alone.
func (s *System) leftover(res DirResult, collector *errors.Collector, log *zap.Logger) (DirResult, error) {
	res.Status = StatusNoRecords

	content, err := os.ReadFile(res.OutputPath)
	if os.IsNotExist(err) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", res.OutputPath, err)
	}
	if !codegen.IsGenerated(content) {
		log.Debug("output name taken by a hand-written file", zap.String("file", res.OutputPath))
		return res, nil
	}

	if s.options.Mode == ModeCheck {
		res.Status = StatusStale
		collector.Add(errors.NewCompilerError(errors.PhaseBuild, errors.ErrStaleOutput,
			fmt.Sprintf("%s is left over: no types in package %s are marked for derivation", res.OutputPath, res.Package),
			errors.SourceLocation{File: res.OutputPath}, errors.Error))
		return res, nil
	}

	if err := os.Remove(res.OutputPath); err != nil {
		collector.Add(errors.NewCompilerError(errors.PhaseBuild, errors.ErrWriteOutput,
			fmt.Sprintf("failed to remove %s: %v", res.OutputPath, err),
			errors.SourceLocation{File: res.OutputPath}, errors.Error))
		res.Status = StatusFailed
		return res, nil
	}
	res.Status = StatusRemoved
	log.Info("removed generated file", zap.String("file", res.OutputPath))
	return res, nil
}

// fail records a compiler diagnostic and marks the directory failed. Other
// errors abort the run.
func (s *System) fail(res DirResult, err error, collector *errors.Collector, log *zap.Logger) (DirResult, error) {
	ce, ok := errors.As(err)
	if !ok {
		return res, err
	}
	log.Debug("directory failed", zap.String("code", ce.Code), zap.String("message", ce.Message))
	collector.Add(ce)
	res.Status = StatusFailed
	return res, nil
}
