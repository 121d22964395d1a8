// Package watch re-parses expression files as they change on disk and
// streams the results to websocket subscribers.
package watch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/cache"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Options configures a FileWatcher
type Options struct {
	// Roots are directories watched recursively for files matching Patterns
	Roots []string
	// Files are watched individually; when set, only they trigger changes
	Files []string
	// Patterns are base-name globs, e.g. "*.ts"
	Patterns []string
	// Ignored are base-name globs that never trigger changes
	Ignored []string
	// Debounce is the quiet period before a batch of changes is delivered
	Debounce time.Duration

	Logger *zap.Logger
}

// FileWatcher monitors file system changes and triggers callbacks
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	roots     []string
	files     map[string]bool
	patterns  []string
	ignored   []string
	onChange  func([]string) error
	logger    *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewFileWatcher creates a new file watcher instance
func NewFileWatcher(opts Options, onChange func([]string) error) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounce),
		roots:     opts.Roots,
		files:     make(map[string]bool, len(opts.Files)),
		patterns:  opts.Patterns,
		ignored:   opts.Ignored,
		onChange:  onChange,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
	for _, f := range opts.Files {
		fw.files[absPath(f)] = true
	}

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.logger.Error("handle file changes", zap.Strings("files", files), zap.Error(err))
		}
	})

	return fw, nil
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	dirs, err := fw.findDirectories()
	if err != nil {
		return fmt.Errorf("failed to find directories: %w", err)
	}

	for _, dir := range dirs {
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

			if fw.shouldIgnore(event.Name) {
				continue
			}

			// Editors that save atomically produce Create rather than Write.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && fw.matches(event.Name) {
				fw.logger.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				fw.debouncer.Add(event.Name)
			}

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

// findDirectories returns every non-hidden directory under the roots plus
// the parent directory of each individually watched file.
func (fw *FileWatcher) findDirectories() ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, root := range fw.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for file := range fw.files {
		add(filepath.Dir(file))
	}

	sort.Strings(dirs)
	return dirs, nil
}

// shouldIgnore checks if a file path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	baseName := filepath.Base(path)
	if strings.HasPrefix(baseName, ".") {
		return true
	}

	ignored, _ := cache.MatchAny(fw.ignored, baseName)
	return ignored
}

// matches checks if a file is one the watcher was asked about
func (fw *FileWatcher) matches(path string) bool {
	if len(fw.files) > 0 {
		return fw.files[absPath(path)]
	}

	if len(fw.patterns) == 0 {
		return true
	}
	ok, _ := cache.MatchAny(fw.patterns, filepath.Base(path))
	return ok
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopChan chan struct{}
	inflight sync.WaitGroup
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Add adds a file to the debouncer and restarts the quiet period
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	select {
	case <-d.stopChan:
		return
	default:
	}

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with the accumulated files, sorted
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)

	d.files = make(map[string]struct{})
	callback := d.callback
	d.inflight.Add(1)
	d.mutex.Unlock()

	defer d.inflight.Done()
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

// Stop stops the debouncer, dropping pending files, and waits for a
// callback already in progress.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
	d.mutex.Unlock()

	d.inflight.Wait()
}
