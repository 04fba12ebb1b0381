package sys

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher represents an fsnotify watcher over the state directory.
type Watcher struct {
	*fsnotify.Watcher

	mu sync.Mutex

	watching map[string]func(string, fsnotify.Op) error
	root     string
}

// NewWatcher returns a watcher listening for fsnotify events in the given dir.
// Subdirectories are not watched.
func NewWatcher(ctx context.Context, root string) (*Watcher, error) {
	if !shared.PathExists(root) {
		return nil, fmt.Errorf("Path %q does not exist", root)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		Watcher:  fsWatcher,
		watching: map[string]func(string, fsnotify.Op) error{},
		root:     filepath.Clean(root),
	}

	err = watcher.Add(watcher.root)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("Failed to watch path %q: %w", root, err)
	}

	go watcher.handleEvents(ctx)

	return watcher, nil
}

func (w *Watcher) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Closing filesystem watcher", logger.Ctx{"root": w.root})
			w.Close()
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}

			logger.Warn("Filesystem watcher error", logger.Ctx{"root": w.root, "err": err})
		case event, ok := <-w.Events:
			if !ok {
				return
			}

			// Editors often replace files with a rename, so treat create as a write.
			if event.Op&fsnotify.Write == 0 && event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Remove == 0 {
				continue
			}

			w.mu.Lock()
			f, ok := w.watching[filepath.Clean(event.Name)]
			w.mu.Unlock()
			if !ok {
				continue
			}

			err := f(event.Name, event.Op)
			if err != nil {
				logger.Error("Error executing action on fsnotify event", logger.Ctx{"op": event.Op.String(), "path": event.Name, "err": err})
			}
		}
	}
}

// Watch adds a hook to be executed on write, create and remove events for the given file.
func (w *Watcher) Watch(path string, f func(path string, event fsnotify.Op) error) error {
	path = filepath.Clean(path)
	if filepath.Dir(path) != w.root {
		return fmt.Errorf("Path %q is not directly under watcher root path %q", path, w.root)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.watching[path] = f

	return nil
}
