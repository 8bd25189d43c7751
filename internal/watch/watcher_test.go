package watch

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// changeRecorder collects the batches passed to a watcher callback
type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
	signal  chan struct{}
}

func newChangeRecorder() *changeRecorder {
	return &changeRecorder{signal: make(chan struct{}, 16)}
}

func (r *changeRecorder) record(files []string) error {
	r.mu.Lock()
	r.batches = append(r.batches, files)
	r.mu.Unlock()
	r.signal <- struct{}{}
	return nil
}

func (r *changeRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change")
	}
}

func (r *changeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []string
	for _, batch := range r.batches {
		files = append(files, batch...)
	}
	return files
}

func TestFileWatcher_DetectsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "units.dim")
	if err := os.WriteFile(testFile, []byte("dimension Length\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	recorder := newChangeRecorder()
	watcher, err := NewFileWatcher(Options{
		Dirs:     []string{tmpDir},
		Patterns: []string{"*.dim"},
		Delay:    50 * time.Millisecond,
	}, recorder.record, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("dimension Length\ndimension Time\n"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	recorder.wait(t)

	files := recorder.all()
	if !slices.Contains(files, testFile) {
		t.Errorf("Expected %s to be reported, got %v", testFile, files)
	}
	if slices.Contains(files, filepath.Join(tmpDir, "notes.txt")) {
		t.Errorf("Expected notes.txt to be filtered out, got %v", files)
	}
}

func TestFileWatcher_StartMissingDirectory(t *testing.T) {
	watcher, err := NewFileWatcher(Options{
		Dirs: []string{filepath.Join(t.TempDir(), "missing")},
	}, func([]string) error { return nil }, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestDebouncer_Add(t *testing.T) {
	debouncer := NewDebouncer(50 * time.Millisecond)
	recorder := newChangeRecorder()
	debouncer.SetCallback(func(files []string) { recorder.record(files) })

	debouncer.Add("b.dim")
	debouncer.Add("a.dim")
	debouncer.Add("b.dim")

	recorder.wait(t)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(recorder.batches))
	}
	if !slices.Equal(recorder.batches[0], []string{"a.dim", "b.dim"}) {
		t.Errorf("Expected sorted, deduplicated files, got %v", recorder.batches[0])
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	debouncer := NewDebouncer(30 * time.Millisecond)
	recorder := newChangeRecorder()
	debouncer.SetCallback(func(files []string) { recorder.record(files) })

	debouncer.Add("a.dim")
	recorder.wait(t)
	debouncer.Add("b.dim")
	recorder.wait(t)

	if files := recorder.all(); !slices.Equal(files, []string{"a.dim", "b.dim"}) {
		t.Errorf("Expected two single-file batches, got %v", files)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	debouncer := NewDebouncer(30 * time.Millisecond)
	called := make(chan struct{}, 1)
	debouncer.SetCallback(func([]string) { called <- struct{}{} })

	debouncer.Add("a.dim")
	debouncer.Stop()
	debouncer.Add("b.dim")

	select {
	case <-called:
		t.Error("Expected no callback after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestFileWatcher_ShouldIgnore(t *testing.T) {
	fw := &FileWatcher{ignored: []string{"build/generated", "*.tmp"}}

	tests := []struct {
		path     string
		expected bool
	}{
		{"units.dim", false},
		{".units.dim.swp", true},
		{"build/generated/units.go", true},
		{"build/generated", true},
		{"build/other.dim", false},
		{"scratch.tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := fw.shouldIgnore(tt.path); got != tt.expected {
				t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestFileWatcher_MatchesPattern(t *testing.T) {
	fw := &FileWatcher{patterns: []string{"*.dim", "dimc.yml"}}

	tests := []struct {
		path     string
		expected bool
	}{
		{"units.dim", true},
		{"defs/si.dim", true},
		{"dimc.yml", true},
		{"dimc.yaml", false},
		{"units.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := fw.matchesPattern(tt.path); got != tt.expected {
				t.Errorf("matchesPattern(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}

	if !(&FileWatcher{}).matchesPattern("anything") {
		t.Error("Expected no patterns to match everything")
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	watcher, err := NewFileWatcher(Options{Dirs: []string{t.TempDir()}}, func([]string) error { return nil }, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("First Stop failed: %v", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Second Stop should be a no-op, got %v", err)
	}
}
