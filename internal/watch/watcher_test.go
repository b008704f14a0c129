package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "vector.go")
	require.NoError(t, os.WriteFile(src, []byte("package geometry\n"), 0644))

	changes := make(chan []string, 4)
	watcher, err := NewFileWatcher([]string{dir}, []string{"*_structarray.go"}, nil, func(files []string) error {
		changes <- files
		return nil
	})
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Start())

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geometry_structarray.go"), []byte("package geometry\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vector_test.go"), []byte("package geometry\n"), 0644))
	require.NoError(t, os.WriteFile(src, []byte("package geometry\n\ntype V struct{}\n"), 0644))

	select {
	case files := <-changes:
		assert.Equal(t, []string{src}, files)
	case <-time.After(2 * time.Second):
		t.Fatal("expected change to be detected")
	}
}

func TestFileWatcher_StartMissingDir(t *testing.T) {
	watcher, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "missing")}, nil, nil,
		func([]string) error { return nil })
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Error(t, watcher.Start())
}

func TestFileWatcher_StopTwice(t *testing.T) {
	watcher, err := NewFileWatcher([]string{t.TempDir()}, nil, nil, func([]string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, watcher.Start())

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestFileWatcher_Relevant(t *testing.T) {
	fw := &FileWatcher{ignored: []string{"*_structarray.go", "zz_gen.go"}}

	tests := []struct {
		name     string
		op       fsnotify.Op
		expected bool
	}{
		{"pkg/vector.go", fsnotify.Write, true},
		{"pkg/vector.go", fsnotify.Create, true},
		{"pkg/vector.go", fsnotify.Remove, true},
		{"pkg/vector.go", fsnotify.Rename, true},
		{"pkg/vector.go", fsnotify.Chmod, false},
		{"pkg/vector_test.go", fsnotify.Write, false},
		{"pkg/geometry_structarray.go", fsnotify.Write, false},
		{"pkg/zz_gen.go", fsnotify.Write, false},
		{"pkg/.vector.go", fsnotify.Write, false},
		{"pkg/notes.txt", fsnotify.Write, false},
	}

	for _, tt := range tests {
		got := fw.relevant(fsnotify.Event{Name: tt.name, Op: tt.op})
		assert.Equal(t, tt.expected, got, "%s %s", tt.op, tt.name)
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string

	d := NewDebouncer(30 * time.Millisecond)
	d.SetCallback(func(files []string) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, files)
	})

	d.Add("b.go")
	d.Add("a.go")
	d.Add("b.go")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a.go", "b.go"}, batches[0])
	mu.Unlock()
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	d := NewDebouncer(20 * time.Millisecond)
	d.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	})

	d.Add("a.go")
	time.Sleep(80 * time.Millisecond)
	d.Add("b.go")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 10*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	called := false

	d := NewDebouncer(20 * time.Millisecond)
	d.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	d.Add("a.go")
	d.Stop()
	d.Add("b.go")
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, called)
}
