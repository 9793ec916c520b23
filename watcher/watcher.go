// Package watcher provides hot-reload watching of local cross-reference
// maps.
//
// A documentation build server keeps rendered pages in sync with the
// reference tables they link against. The watcher monitors the local file
// a relative reference resolves to and re-acquires the container whenever
// the file content changes.
//
// Basic usage:
//
//	w, err := watcher.New().
//	    WithDownloader(dl).
//	    ForReference("python.yml").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
//	initial, updates, err := w.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go func() {
//	    for c := range updates {
//	        site.ReplaceXrefMap(c)
//	    }
//	}()
//
// Only relative references are watchable: they resolve to a concrete local
// file. Remote references are rejected at Build time. The watched path is
// fixed at Watch time; a file later appearing in an earlier search
// directory is only picked up on the next change of the watched file.
//
// # Thread Safety
//
// The Watcher is safe for concurrent use. The updates channel should be
// consumed by a single goroutine.
package watcher

import (
	"bytes"
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arloliu/xrefmap"
)

// Watcher monitors the file behind one relative reference and emits a
// freshly acquired container when it changes.
type Watcher struct {
	dl          *xrefmap.Downloader
	ref         string
	config      watcherConfig
	fsWatcher   *fsnotify.Watcher
	stopChan    chan struct{}
	doneChan    chan struct{}
	updatesChan chan xrefmap.Container
	mu          sync.Mutex
	running     bool
	watchedPath string
	lastContent []byte
}

// watcherConfig holds internal configuration for the watcher.
type watcherConfig struct {
	debounceInterval time.Duration
}

// defaultDebounceInterval prevents rapid successive reloads.
const defaultDebounceInterval = 100 * time.Millisecond

// Watch locates the reference, acquires it once, and starts watching the
// resolved file. It returns the initial container and a channel that
// receives a new container after every content change that still
// deserializes successfully.
//
// The returned channel is closed when Stop is called or ctx is canceled.
func (w *Watcher) Watch(ctx context.Context) (xrefmap.Container, <-chan xrefmap.Container, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil, nil, &WatcherError{Message: "watcher is already running"}
	}

	path, err := w.dl.Locate(ctx, w.ref)
	if err != nil {
		return nil, nil, err
	}

	initial, err := w.dl.Acquire(ctx, w.ref)
	if err != nil {
		return nil, nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &WatcherError{Message: "read watched file", Err: err}
	}

	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &WatcherError{Message: "create filesystem watcher", Err: err}
	}

	if err := w.fsWatcher.Add(path); err != nil {
		_ = w.fsWatcher.Close()
		w.fsWatcher = nil

		return nil, nil, &WatcherError{Message: "watch " + path, Err: err}
	}

	w.watchedPath = path
	w.lastContent = content
	w.running = true
	w.updatesChan = make(chan xrefmap.Container, 1)
	w.stopChan = make(chan struct{})
	w.doneChan = make(chan struct{})

	go w.watchLoop(ctx)

	return initial, w.updatesChan, nil
}

// Stop gracefully stops the watcher.
// It closes the updates channel and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	<-w.doneChan // Wait for watchLoop to finish

	_ = w.fsWatcher.Close()
}

// watchLoop is the main loop reacting to filesystem events.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneChan)
	defer close(w.updatesChan)

	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	reload := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.NewTimer(w.config.debounceInterval)
		debounceChan = debounceTimer.C
	}

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// Only react to write and create events. Editors that replace
			// the file on save emit a create for the new inode.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				reload()
			}

		case <-debounceChan:
			debounceChan = nil

			c, changed := w.reacquireIfChanged(ctx)
			if !changed {
				continue
			}

			select {
			case w.updatesChan <- c:
			case <-w.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// reacquireIfChanged re-reads the watched file and, when its content
// differs from the last emitted state, acquires a fresh container.
// Read or acquisition failures leave the watcher running; the next change
// triggers another attempt.
func (w *Watcher) reacquireIfChanged(ctx context.Context) (xrefmap.Container, bool) {
	content, err := os.ReadFile(w.watchedPath)
	if err != nil {
		return nil, false
	}

	if bytes.Equal(content, w.lastContent) {
		return nil, false
	}

	c, err := w.dl.Acquire(ctx, w.ref)
	if err != nil {
		return nil, false
	}

	w.lastContent = content

	return c, true
}

// WatcherError represents a watcher-specific error.
type WatcherError struct {
	Message string
	Err     error
}

func (e *WatcherError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WatcherError) Unwrap() error {
	return e.Err
}
