// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/groupsio/iris/internal/watcher"
)

// Watcher observes the config file for external edits and reports them —
// it never applies a change itself. Reload stays an explicit admin action
// (ConfigView's contract); this only gives an operator (or the dashboard)
// a signal that the file on disk has drifted from what was last loaded.
type Watcher struct {
	path      string
	fsWatcher *fsnotify.Watcher
	debouncer *watcher.Debouncer
	onChange  func(path string)

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching path and invokes onChange (debounced) whenever
// the file is written or recreated.
func NewWatcher(path string, onChange func(path string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}

	w := &Watcher{
		path:      path,
		fsWatcher: fsWatcher,
		debouncer: watcher.NewDebouncer(500 * time.Millisecond),
		onChange:  onChange,
		closeCh:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.debouncer.Debounce(w.path, func() {
				log.Printf("config: detected external edit of %s", w.path)
				if w.onChange != nil {
					w.onChange(w.path)
				}
			})
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watch error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debouncer.Stop()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}
