// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps an Index synchronized with a corpus directory on disk by
// re-ingesting files as they are written, created or removed.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	loader   *Loader
	ids      *PathID
	debounce time.Duration
	stopCh   chan struct{}
	running  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the default 500ms debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a Watcher over dir, adding dir (but not its
// subdirectories) to the underlying fsnotify watch list.
func NewWatcher(dir string, loader *Loader, ids *PathID, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		loader:   loader,
		ids:      ids,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch blocks, re-ingesting files on write/create events and evicting them
// on remove/rename events, until ctx is cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	pending := make(map[string]*time.Timer)
	var pendingMu sync.Mutex

	schedule := func(path string, fn func()) {
		pendingMu.Lock()
		defer pendingMu.Unlock()
		if t, ok := pending[path]; ok {
			t.Stop()
		}
		pending[path] = time.AfterFunc(w.debounce, fn)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path := event.Name
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				schedule(path, func() {
					ctx := context.Background()
					if _, err := w.loader.LoadDir(ctx, path, w.ids); err != nil {
						log.Printf("corpus watcher: reindex %s: %v", path, err)
					}
				})
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				schedule(path, func() {
					w.loader.RemoveFile(path, w.ids)
				})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("corpus watcher error: %v", err)
		}
	}
}

// Stop halts Watch and releases the underlying fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.fsw.Close()
}
