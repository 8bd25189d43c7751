// Package watch runs a callback when definition files change on disk.
package watch

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long changes are collected before the callback runs
const DefaultDelay = 100 * time.Millisecond

// FileWatcher monitors directories and reports changed files that match
// its patterns
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	dirs      []string
	patterns  []string
	ignored   []string
	logger    *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// Options configures a FileWatcher
type Options struct {
	// Dirs are watched non-recursively.
	Dirs []string
	// Patterns are base-name globs such as "*.dim". No patterns match all files.
	Patterns []string
	// Ignored are path prefixes and base-name globs to skip.
	Ignored []string
	// Delay defaults to DefaultDelay.
	Delay time.Duration
}

// NewFileWatcher creates a new file watcher. onChange receives the sorted
// paths changed since the previous call.
func NewFileWatcher(opts Options, onChange func([]string) error, logger *zap.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(opts.Delay),
		dirs:      opts.Dirs,
		patterns:  opts.Patterns,
		ignored:   opts.Ignored,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}

	fw.debouncer.SetCallback(func(files []string) {
		if err := onChange(files); err != nil {
			fw.logger.Warn("change handler failed", zap.Error(err))
		}
	})

	return fw, nil
}

// Start begins watching the configured directories
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	select {
	case <-fw.stopChan:
		return nil
	default:
		close(fw.stopChan)
	}

	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if fw.shouldIgnore(event.Name) || !fw.matchesPattern(event.Name) {
				continue
			}
			fw.logger.Debug("file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			fw.debouncer.Add(event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// shouldIgnore checks if a file path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	baseName := filepath.Base(path)
	if strings.HasPrefix(baseName, ".") {
		return true
	}

	clean := filepath.Clean(path)
	for _, pattern := range fw.ignored {
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
		prefix := filepath.Clean(pattern)
		if clean == prefix || strings.HasPrefix(clean, prefix+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

// matchesPattern checks if a file matches any of the watch patterns
func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.patterns) == 0 {
		return true
	}

	baseName := filepath.Base(path)
	for _, pattern := range fw.patterns {
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}

	return false
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add records a changed file and restarts the delay
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with accumulated files. The callback runs
// without the lock held.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	slices.Sort(files)
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending callback
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
