package watcher

import (
	"net/url"
	"time"

	"github.com/arloliu/xrefmap"
)

// New creates a new watcher Builder.
func New() *Builder {
	return &Builder{
		config: watcherConfig{
			debounceInterval: defaultDebounceInterval,
		},
	}
}

// Builder provides a fluent API for constructing a Watcher.
type Builder struct {
	config watcherConfig
	dl     *xrefmap.Downloader
	ref    string
	err    error
}

// WithDownloader sets the Downloader used to locate and acquire the
// reference. Required.
func (b *Builder) WithDownloader(dl *xrefmap.Downloader) *Builder {
	b.dl = dl
	return b
}

// ForReference sets the relative reference to watch. Required.
// Absolute references are rejected at Build time: only references resolved
// through the local search path map to a watchable file.
func (b *Builder) ForReference(ref string) *Builder {
	b.ref = ref
	return b
}

// WithDebounceInterval sets the debounce interval for file changes.
// Multiple rapid changes are coalesced into a single re-acquisition.
//
// Default is 100 milliseconds.
func (b *Builder) WithDebounceInterval(interval time.Duration) *Builder {
	b.config.debounceInterval = interval
	return b
}

// Build creates the Watcher with the configured options.
func (b *Builder) Build() (*Watcher, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.dl == nil {
		return nil, &WatcherError{Message: "a Downloader is required"}
	}

	if b.ref == "" {
		return nil, &WatcherError{Message: "a reference is required"}
	}

	if u, err := url.Parse(b.ref); err == nil && u.IsAbs() {
		return nil, &WatcherError{Message: "only relative references can be watched: " + b.ref}
	}

	return &Watcher{
		dl:     b.dl,
		ref:    b.ref,
		config: b.config,
	}, nil
}
