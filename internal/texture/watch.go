package texture

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"projmap/internal/monitoring"
)

// Watcher reloads content files when they change on disk.
type Watcher struct {
	fw    *fsnotify.Watcher
	cache *Cache

	mu    sync.Mutex
	files map[string]bool
	out   chan Result
}

// NewWatcher starts an fsnotify watcher. cache may be nil; when set, changed
// files are invalidated before reloading.
func NewWatcher(cache *Cache) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("texture: watcher: %w", err)
	}
	return &Watcher{
		fw:    fw,
		cache: cache,
		files: make(map[string]bool),
		out:   make(chan Result, 8),
	}, nil
}

// Watch adds path to the watch set. The parent directory is watched so
// editors that replace files atomically are still seen.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("texture: watch %s: %w", path, err)
	}
	w.files[abs] = true
	return nil
}

// Updates delivers one Result per reload.
func (w *Watcher) Updates() <-chan Result { return w.out }

// Run processes file events until ctx is done, then closes the watcher and
// the Updates channel.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.out)
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			w.mu.Lock()
			watched := w.files[path]
			w.mu.Unlock()
			if !watched {
				continue
			}
			if w.cache != nil {
				w.cache.Invalidate(path)
			}
			img, err := LoadImage(path)
			if err != nil {
				// Writers often truncate first; the next write event retries.
				monitoring.Logf("texture: reload %s: %v", path, err)
				continue
			}
			select {
			case w.out <- Result{Path: path, Image: img}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			monitoring.Logf("texture: watcher: %v", err)
		}
	}
}
