// Package resolver locates relative references on the local filesystem
// using an ordered fallback search.
package resolver

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arloliu/xrefmap/internal/document"
	"github.com/arloliu/xrefmap/internal/format"
	"github.com/arloliu/xrefmap/internal/types"
)

// Local resolves relative references against an ordered list of search
// directories: the primary base directory followed by any fallback
// directories, in caller-supplied order. The list is immutable after
// construction.
type Local struct {
	fs          afero.Fs
	searchPaths []string
}

// NewLocal creates a Local resolver over the given filesystem and search
// directories.
func NewLocal(fsys afero.Fs, searchPaths []string) *Local {
	return &Local{
		fs:          fsys,
		searchPaths: append([]string(nil), searchPaths...),
	}
}

// SearchPaths returns the configured directories in search order.
func (l *Local) SearchPaths() []string {
	return append([]string(nil), l.searchPaths...)
}

// Locate walks the search directories in order and returns the first
// existing candidate path for ref. Directories after the first match are
// never consulted. When no candidate exists anywhere, the error lists
// every searched directory.
func (l *Local) Locate(ctx context.Context, ref string) (string, error) {
	for _, dir := range l.searchPaths {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := filepath.Join(dir, ref)

		ok, err := afero.Exists(l.fs, candidate)
		if err != nil {
			return "", err
		}

		if ok {
			return candidate, nil
		}
	}

	return "", &types.NotFoundError{Ref: ref, SearchPaths: l.SearchPaths()}
}

// Resolve locates ref and loads it, returning the container together with
// the path it was loaded from.
func (l *Local) Resolve(ctx context.Context, ref string) (document.Container, string, error) {
	p, err := l.Locate(ctx, ref)
	if err != nil {
		return nil, "", err
	}

	c, err := format.Load(l.fs, p)

	return c, p, err
}
