// Package filesystem watches a directory tree for documents to ingest.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragify/ragify/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before reporting the changed files.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports regular, non-hidden files under a root directory.
type Watcher struct {
	root     string
	debounce time.Duration
	accept   func(path string) bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter restricts reported files to those accept returns true for.
func WithFilter(accept func(path string) bool) Option {
	return func(w *Watcher) {
		w.accept = accept
	}
}

// New creates a watcher rooted at root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		accept:   func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan lists the files currently under the root, sorted by path.
func (w *Watcher) Scan() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.accept(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch reports batches of created or modified files until ctx is
// cancelled. New subdirectories are watched as they appear. The channel
// is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) (<-chan []string, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fsw, w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	out := make(chan []string)
	go w.loop(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- []string) {
	defer close(out)
	defer fsw.Close()

	pending := make(map[string]struct{})
	ready := make(chan struct{}, 1)
	var timer *time.Timer

	flush := func() {
		select {
		case ready <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() && event.Has(fsnotify.Create) {
				if !isHidden(filepath.Base(event.Name)) {
					if err := w.addTree(fsw, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
				}
				continue
			}
			path, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			logger.Debug("change detected: %s", path)

			pending[path] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, flush)

		case <-ready:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			pending = make(map[string]struct{})

			if len(batch) == 0 {
				continue
			}
			sort.Strings(batch)
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error: %v", err)
		}
	}
}

// handleFsEvent returns the path a filesystem event reports, if it
// names a file worth ingesting.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	if !w.accept(event.Name) {
		return "", false
	}
	return event.Name, true
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
