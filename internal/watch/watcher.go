// Package watch reports file changes under a set of directories, debounced
// into batches.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"storysync/internal/logging"
)

const defaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Filter keeps only matching paths. Nil keeps everything.
	Filter func(path string) bool
	Logger *log.Logger
}

// Watcher collects change events and hands them to onChange in sorted,
// deduplicated batches once the directories go quiet for the debounce
// window.
type Watcher struct {
	dirs     []string
	onChange func(paths []string)
	opts     Options
	logger   *log.Logger

	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New builds a watcher for dirs. Nothing is watched until Start.
func New(dirs []string, onChange func(paths []string), opts Options) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: onChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	clean := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			d = abs
		}
		d = filepath.Clean(d)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		clean = append(clean, d)
	}
	return &Watcher{
		dirs:     clean,
		onChange: onChange,
		opts:     opts,
		logger:   logging.OrDiscard(opts.Logger),
		pending:  make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Directories that do not exist are skipped; it is
// an error if none can be watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsWatcher
	w.mu.Unlock()

	watched := 0
	for _, dir := range w.dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			w.logger.Warn("skip watch dir", "dir", dir)
			continue
		}
		if err := fsWatcher.Add(dir); err != nil {
			w.logger.Warn("watch dir failed", "dir", dir, "err", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		w.Stop()
		return errors.New("watch: no directory could be watched")
	}

	go w.loop(fsWatcher)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				w.Stop()
			case <-w.stopCh:
			}
		}()
	}
	return nil
}

// Stop ends watching. Pending changes are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.mu.Unlock()
	})
}

// Done is closed once the watcher stops.
func (w *Watcher) Done() <-chan struct{} { return w.stopCh }

func (w *Watcher) loop(fsWatcher *fsnotify.Watcher) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(event.Name)
	if w.opts.Filter != nil && !w.opts.Filter(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.flush)
}

func (w *Watcher) flush() {
	select {
	case <-w.stopCh:
		return
	default:
	}
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.onChange(paths)
}

// MarkdownOnly is a Filter that keeps .md files.
func MarkdownOnly(path string) bool {
	return filepath.Ext(path) == ".md"
}
