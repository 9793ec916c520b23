// Package xrefmap acquires cross-reference map documents for a
// documentation build pipeline.
//
// A reference is either a relative path, resolved against an ordered list
// of local search directories (first match wins), or an absolute URI with
// scheme file, http, or https. The container format is selected by file
// extension: zip archives (local only), JSON, and YAML, with YAML as the
// default for unknown extensions.
//
// Basic usage:
//
//	dl, err := xrefmap.New().
//	    WithBaseDir("docs").
//	    WithFallbackDirs("/usr/share/xrefmaps").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := dl.Acquire(ctx, "python.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	target, ok := c.Resolve("library/json")
//
// Acquisitions against one Downloader are concurrency-bounded: at most
// MaxConcurrency (default 16) run at a time, callers beyond that block
// until a slot frees.
package xrefmap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/arloliu/xrefmap/internal/document"
	"github.com/arloliu/xrefmap/internal/fetch"
	"github.com/arloliu/xrefmap/internal/format"
	"github.com/arloliu/xrefmap/internal/resolver"
	"github.com/arloliu/xrefmap/internal/types"
)

// Downloader resolves reference URIs into cross-reference containers.
// It is safe for concurrent use; its search-path list and gate capacity
// are fixed at Build time.
type Downloader struct {
	local   *resolver.Local
	fetcher *fetch.Client
	fs      afero.Fs
	gate    *semaphore.Weighted
	logger  *zap.Logger
}

// builderConfig holds builder state, defaulted and validated at Build.
type builderConfig struct {
	BaseDir        string        `default:"." validate:"required"`
	FallbackDirs   []string      `validate:"dive,required"`
	MaxConcurrency int           `default:"16" validate:"gte=1"`
	HTTPTimeout    time.Duration `validate:"gte=0"`
	Fs             afero.Fs
	Logger         *zap.Logger
	HTTPClient     *http.Client
	EnvFiles       []string
}

// New creates a new Downloader Builder.
func New() *Builder {
	return &Builder{}
}

// Builder provides a fluent API for constructing a Downloader.
type Builder struct {
	config builderConfig
	err    error
}

// WithBaseDir sets the primary search directory for relative references.
// It is resolved against the current working directory at Build time.
// Defaults to ".".
func (b *Builder) WithBaseDir(dir string) *Builder {
	b.config.BaseDir = dir

	return b
}

// WithFallbackDirs appends fallback search directories, consulted in the
// given order only when earlier directories lack the requested file.
func (b *Builder) WithFallbackDirs(dirs ...string) *Builder {
	b.config.FallbackDirs = append(b.config.FallbackDirs, dirs...)

	return b
}

// WithMaxConcurrency caps how many acquisitions run simultaneously against
// the built Downloader. Defaults to 16.
func (b *Builder) WithMaxConcurrency(n int) *Builder {
	b.config.MaxConcurrency = n

	return b
}

// WithHTTPTimeout overrides the remote fetch timeout. The default is
// deliberately generous (30 minutes) to accommodate large map files on
// slow links.
func (b *Builder) WithHTTPTimeout(timeout time.Duration) *Builder {
	b.config.HTTPTimeout = timeout

	return b
}

// WithFilesystem sets the filesystem used for all local reads.
// If not set, DefaultFs is used.
func (b *Builder) WithFilesystem(fsys afero.Fs) *Builder {
	b.config.Fs = fsys

	return b
}

// WithLogger sets the logger for per-acquisition diagnostics.
// If not set, logging is disabled.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.config.Logger = logger

	return b
}

// WithHTTPClient replaces the internally constructed HTTP client.
// Mainly useful for tests.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.config.HTTPClient = client

	return b
}

// WithEnvFile loads the given dotenv files at Build time, before
// environment overrides (such as XREFMAP_TLS_SKIP_VERIFY) are read.
// Missing files are silently ignored to support optional .env.local
// patterns.
func (b *Builder) WithEnvFile(paths ...string) *Builder {
	b.config.EnvFiles = append(b.config.EnvFiles, paths...)

	return b
}

// Apply applies a configuration function to the builder.
// This enables reusable configuration bundles:
//
//	var ciConfig = func(b *xrefmap.Builder) {
//	    b.WithMaxConcurrency(4).WithHTTPTimeout(time.Minute)
//	}
//	dl, _ := xrefmap.New().WithBaseDir("docs").Apply(ciConfig).Build()
func (b *Builder) Apply(fn func(*Builder)) *Builder {
	fn(b)

	return b
}

// Build creates the Downloader with the configured options.
func (b *Builder) Build() (*Downloader, error) {
	if b.err != nil {
		return nil, b.err
	}

	cfg := b.config
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvFiles(cfg.EnvFiles); err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory %q: %w", cfg.BaseDir, err)
	}

	searchPaths := append([]string{baseDir}, cfg.FallbackDirs...)

	fsys := cfg.Fs
	if fsys == nil {
		fsys = DefaultFs
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fetchOpts := fetch.DefaultOptions()
	if cfg.HTTPTimeout > 0 {
		fetchOpts.Timeout = cfg.HTTPTimeout
	}
	fetchOpts.HTTPClient = cfg.HTTPClient

	return &Downloader{
		local:   resolver.NewLocal(fsys, searchPaths),
		fetcher: fetch.NewClient(fetchOpts),
		fs:      fsys,
		gate:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger:  logger,
	}, nil
}

// loadEnvFiles loads dotenv files that exist on disk.
// Missing files are silently ignored.
func loadEnvFiles(files []string) error {
	var existing []string

	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// SearchPaths returns the configured search directories in order: the
// primary base directory followed by the fallback directories.
func (d *Downloader) SearchPaths() []string {
	return d.local.SearchPaths()
}

// Locate returns the local path a relative reference currently resolves
// to, without loading it.
func (d *Downloader) Locate(ctx context.Context, ref string) (string, error) {
	return d.local.Locate(ctx, ref)
}

// Acquire resolves ref into a fully deserialized container.
//
// Absolute references dispatch by scheme: file reads the embedded path
// directly, http and https fetch over the network, anything else fails
// with an UnsupportedSchemeError. Relative references walk the search
// directories in order and load the first match.
//
// Acquire blocks while all concurrency slots are busy; the slot is
// released on every path, success and failure alike. Errors propagate
// unchanged, never retried, and no partial result is ever returned.
func (d *Downloader) Acquire(ctx context.Context, ref string) (Container, error) {
	if ref == "" {
		return nil, errors.New("xrefmap: reference must not be empty")
	}

	if err := d.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.gate.Release(1)

	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", ref, err)
	}

	var (
		c      document.Container
		source string
	)

	if u.IsAbs() {
		c, source, err = d.acquireAbsolute(ctx, u, ref)
	} else {
		c, source, err = d.local.Resolve(ctx, ref)
	}

	if err != nil {
		return nil, err
	}

	if c == nil {
		if source == "" {
			source = ref
		}

		return nil, &types.InvalidDocumentError{Source: source}
	}

	d.logger.Debug("acquired cross-reference map",
		zap.String("ref", ref),
		zap.String("source", source),
		zap.Stringer("format", format.Detect(u.Path)))

	return c, nil
}

// acquireAbsolute dispatches an absolute reference by scheme and returns
// the container together with the concrete source it was loaded from.
func (d *Downloader) acquireAbsolute(ctx context.Context, u *url.URL, ref string) (document.Container, string, error) {
	switch u.Scheme {
	case "file":
		p := filePath(u)

		c, err := format.Load(d.fs, p)

		return c, p, err
	case "http", "https":
		m, err := d.fetcher.FetchMap(ctx, u)
		if err != nil {
			return nil, "", err
		}

		if m == nil {
			return nil, u.String(), nil
		}

		return m, u.String(), nil
	default:
		return nil, "", &types.UnsupportedSchemeError{Ref: ref, Scheme: u.Scheme}
	}
}

// filePath extracts the filesystem path from a file:// URI.
// Both file:///absolute/path and file://relative/path are supported; in
// the latter form the host component is part of the path.
func filePath(u *url.URL) string {
	if u.Host != "" {
		return u.Host + u.Path
	}

	return u.Path
}

// Acquire resolves ref using a Downloader built with default options and
// the given primary base directory. For repeated acquisitions, build a
// Downloader once and reuse it so the concurrency gate is shared.
func Acquire(ctx context.Context, ref, baseDir string) (Container, error) {
	dl, err := New().WithBaseDir(baseDir).Build()
	if err != nil {
		return nil, err
	}

	return dl.Acquire(ctx, ref)
}
