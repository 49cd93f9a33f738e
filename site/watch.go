// ABOUTME: Live reload of cached pages when files in the content directory change
// ABOUTME: Wraps an fsnotify watcher and refreshes or drops cache entries per event

package site

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a Site's page cache in sync with its content directory
type Watcher struct {
	site    *Site
	watcher *fsnotify.Watcher
	debugf  func(string, ...interface{})
}

// NewWatcher starts watching the site's directory. Events are handled by Run.
func (s *Site) NewWatcher(debugf func(string, ...interface{})) (*Watcher, error) {
	if debugf == nil {
		debugf = func(string, ...interface{}) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch content directory: %w", err)
	}

	return &Watcher{site: s, watcher: watcher, debugf: debugf}, nil
}

// Run handles file events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			// Log error but continue watching
			w.debugf("[WATCHER] Error: %v", err)
		}
	}
}

// handle applies one event to the cache
func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !w.site.tracks(name) {
		return
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		if _, err := w.site.reload(name); err != nil {
			// Partially written or already gone: read it again on next request
			w.site.Invalidate(name)
			w.debugf("[WATCHER] Reload of %s failed: %v", name, err)

			return
		}

		w.debugf("[WATCHER] Reloaded %s", name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.site.Invalidate(name)
		w.debugf("[WATCHER] Dropped %s from cache", name)
	}
}
