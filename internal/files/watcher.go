package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
)

// Watcher keeps an in-memory index of the knowledge-base directory
// current as files change on disk. Editors saving a file outside the
// store (or the container writing into the mount) are picked up without
// rescanning on every List call.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	store    *Store
	index    map[string]Info
	pending  map[string]time.Time
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	Created   int
	Modified  int
	Deleted   int
	Errors    int
	LastEvent time.Time
	LastPath  string
}

// NewWatcher creates a watcher over the store's directory.
func NewWatcher(store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		store:    store,
		index:    make(map[string]Info),
		pending:  make(map[string]time.Time),
		debounce: 250 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start seeds the index from disk and begins watching. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.Rescan(); err != nil {
		logging.FilesError("initial index scan failed: %v", err)
	}
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return err
	}
	logging.Files("watching knowledge-base dir: %s", w.store.Dir())

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.FilesError("error closing watcher: %v", err)
	}
	logging.Files("watcher stopped")
}

// Index returns the current file index sorted by name.
func (w *Watcher) Index() []Info {
	w.mu.RLock()
	defer w.mu.RUnlock()
	infos := make([]Info, 0, len(w.index))
	for _, info := range w.index {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Stats returns the current watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Rescan rebuilds the index from disk.
func (w *Watcher) Rescan() error {
	infos, err := w.store.List()
	if err != nil {
		return err
	}
	fresh := make(map[string]Info, len(infos))
	for _, info := range infos {
		fresh[info.Name] = info
	}
	w.mu.Lock()
	w.index = fresh
	w.mu.Unlock()
	logging.FilesDebug("index rescanned: %d files", len(fresh))
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.FilesError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".pl") {
		return
	}
	name := filepath.Base(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.LastEvent = time.Now()
	w.stats.LastPath = name

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.index, name)
		delete(w.pending, name)
		w.stats.Deleted++
		logging.FilesDebug("index: removed %s", name)
	case event.Op&fsnotify.Create != 0:
		w.stats.Created++
		w.pending[name] = time.Now()
	case event.Op&fsnotify.Write != 0:
		w.stats.Modified++
		w.pending[name] = time.Now()
	}
}

// flushPending stats files whose events have settled past the debounce
// window and folds them into the index.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, name)
			delete(w.pending, name)
		}
	}
	w.mu.Unlock()

	for _, name := range settled {
		fi, err := os.Stat(filepath.Join(w.store.Dir(), name))
		if err != nil {
			continue // deleted during debounce
		}
		w.mu.Lock()
		w.index[name] = Info{Name: name, Size: fi.Size(), Modified: fi.ModTime()}
		w.mu.Unlock()
		logging.FilesDebug("index: updated %s (%d bytes)", name, fi.Size())
	}
}
