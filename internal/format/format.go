// Package format selects and applies a deserialization strategy based on a
// reference's file extension. The extension table here is the single source
// of truth for both the local and remote acquisition paths; the remote path
// simply never sees the archive row.
package format

import (
	"archive/zip"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/xrefmap/internal/document"
	"github.com/arloliu/xrefmap/internal/types"
)

// Kind identifies a deserialization strategy.
type Kind int

const (
	// KindYAML deserializes a single map document with YAML rules.
	// It is also the default for unknown or missing extensions.
	KindYAML Kind = iota
	// KindJSON deserializes a single map document with JSON rules.
	KindJSON
	// KindArchive opens a read-only zip container of map documents.
	// Local files only.
	KindArchive
)

// String returns the strategy name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindArchive:
		return "zip"
	default:
		return "yaml"
	}
}

// strategies maps a lowercase extension to its strategy. Extensions not in
// the table deliberately fall back to YAML; callers rely on that default
// for extension-less references.
var strategies = map[string]Kind{
	".zip":  KindArchive,
	".json": KindJSON,
	".yml":  KindYAML,
	".yaml": KindYAML,
}

// Detect returns the strategy for the given file name or URL path.
// The match is case-insensitive; unknown extensions default to YAML.
func Detect(name string) Kind {
	if k, ok := strategies[strings.ToLower(path.Ext(name))]; ok {
		return k
	}

	return KindYAML
}

// DetectRemote is Detect without the archive row: zip containers are not
// supported over the network, so a remote .zip falls back to YAML like any
// other unknown extension.
func DetectRemote(name string) Kind {
	if k := Detect(name); k != KindArchive {
		return k
	}

	return KindYAML
}

// DecodeMap deserializes a single map document from r using the given
// strategy. A document that parses to nothing (empty YAML, JSON null)
// yields a nil map and no error; callers decide whether that is acceptable.
func DecodeMap(r io.Reader, kind Kind, source string) (*document.Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var m *document.Map

	switch kind {
	case KindJSON:
		// An entirely empty body is treated like YAML's empty document
		// rather than a JSON syntax error.
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil, nil
		}

		err = json.Unmarshal(data, &m)
	default:
		err = yaml.Unmarshal(data, &m)
	}

	if err != nil {
		return nil, &types.DeserializationError{Source: source, Format: kind.String(), Err: err}
	}

	return m, nil
}

// Load reads the file at p from fsys and deserializes it according to its
// extension. The returned container is nil when the document parsed to
// nothing.
func Load(fsys afero.Fs, p string) (document.Container, error) {
	kind := Detect(p)
	if kind == KindArchive {
		return OpenArchive(fsys, p)
	}

	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := DecodeMap(f, kind, p)
	if err != nil {
		return nil, err
	}

	if m == nil {
		// Explicit nil: a typed nil *Map inside the interface would defeat
		// the caller's empty-document check.
		return nil, nil
	}

	return m, nil
}

// OpenArchive opens the zip file at p read-only and decodes every regular
// member as a map document using the same extension table (minus the
// archive row). Empty members are skipped; malformed ones fail the whole
// open.
func OpenArchive(fsys afero.Fs, p string) (*document.Archive, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := fsys.Stat(p)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, &types.DeserializationError{Source: p, Format: "zip", Err: err}
	}

	var members []*document.Map

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}

		if Detect(zf.Name) == KindArchive {
			// Nested archives are not expanded.
			continue
		}

		m, err := decodeArchiveMember(zf, p)
		if err != nil {
			return nil, err
		}

		if m != nil {
			members = append(members, m)
		}
	}

	return document.NewArchive(members), nil
}

func decodeArchiveMember(zf *zip.File, archivePath string) (*document.Map, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, &types.DeserializationError{Source: archivePath, Format: "zip", Err: err}
	}
	defer rc.Close()

	return DecodeMap(rc, Detect(zf.Name), archivePath+"!"+zf.Name)
}
