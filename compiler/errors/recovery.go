package errors

import (
	"sort"
	"sync"
)

// Collector gathers diagnostics from concurrent generation jobs
type Collector struct {
	mu    sync.Mutex
	diags []CompilerError
}

// NewCollector creates an empty Collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a diagnostic, enriching it with source context when the file
// is readable and no context is attached yet.
func (c *Collector) Add(err CompilerError) {
	if len(err.Context.SourceLines) == 0 {
		err = EnrichErrorFromFile(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, err)
}

// Counts returns the number of errors and warnings collected so far
func (c *Collector) Counts() (errorCount, warningCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diags {
		switch {
		case d.IsError():
			errorCount++
		case d.IsWarning():
			warningCount++
		}
	}
	return errorCount, warningCount
}

// All returns the diagnostics ordered by file, line and column
func (c *Collector) All() []CompilerError {
	c.mu.Lock()
	out := make([]CompilerError, len(c.diags))
	copy(out, c.diags)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Location, out[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
