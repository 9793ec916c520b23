package format_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/xrefmap/internal/format"
	"github.com/arloliu/xrefmap/internal/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		path string
		want format.Kind
	}{
		{name: "yml extension", path: "python.yml", want: format.KindYAML},
		{name: "yaml extension", path: "python.yaml", want: format.KindYAML},
		{name: "json extension", path: "python.json", want: format.KindJSON},
		{name: "zip extension", path: "bundle.zip", want: format.KindArchive},
		{name: "uppercase extension", path: "PYTHON.JSON", want: format.KindJSON},
		{name: "mixed case zip", path: "Bundle.Zip", want: format.KindArchive},
		{name: "unknown extension defaults to yaml", path: "objects.inv", want: format.KindYAML},
		{name: "no extension defaults to yaml", path: "objects", want: format.KindYAML},
		{name: "url path", path: "/docs/map.json", want: format.KindJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, format.Detect(tt.path))
		})
	}
}

func TestDetectRemote(t *testing.T) {
	// The archive row is local-only; a remote .zip degrades to the YAML
	// default like any other unknown extension.
	assert.Equal(t, format.KindYAML, format.DetectRemote("bundle.zip"))
	assert.Equal(t, format.KindJSON, format.DetectRemote("map.json"))
	assert.Equal(t, format.KindYAML, format.DetectRemote("map.yml"))
}

const mapYAML = `
base: https://docs.example.org/py/
entries:
  - name: library/json
    kind: doc
    location: library/json.html
  - name: library/http
    kind: doc
    location: library/http.html
`

const mapJSON = `{
  "base": "https://docs.example.org/py/",
  "entries": [
    {"name": "library/json", "kind": "doc", "location": "library/json.html"},
    {"name": "library/http", "kind": "doc", "location": "library/http.html"}
  ]
}`

func TestDecodeMap(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		m, err := format.DecodeMap(strings.NewReader(mapYAML), format.KindYAML, "map.yml")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "https://docs.example.org/py/", m.BaseURL)
		assert.Len(t, m.Entries, 2)
	})

	t.Run("json", func(t *testing.T) {
		m, err := format.DecodeMap(strings.NewReader(mapJSON), format.KindJSON, "map.json")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "https://docs.example.org/py/", m.BaseURL)
		assert.Len(t, m.Entries, 2)
	})

	t.Run("yaml and json yield identical documents", func(t *testing.T) {
		fromYAML, err := format.DecodeMap(strings.NewReader(mapYAML), format.KindYAML, "map.yml")
		require.NoError(t, err)

		fromJSON, err := format.DecodeMap(strings.NewReader(mapJSON), format.KindJSON, "map.json")
		require.NoError(t, err)

		assert.Equal(t, fromYAML, fromJSON)
	})

	t.Run("empty yaml yields nil map", func(t *testing.T) {
		m, err := format.DecodeMap(strings.NewReader(""), format.KindYAML, "empty.yml")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("empty json yields nil map", func(t *testing.T) {
		m, err := format.DecodeMap(strings.NewReader("  \n"), format.KindJSON, "empty.json")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("json null yields nil map", func(t *testing.T) {
		m, err := format.DecodeMap(strings.NewReader("null"), format.KindJSON, "null.json")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := format.DecodeMap(strings.NewReader("entries: [unclosed"), format.KindYAML, "bad.yml")
		require.Error(t, err)

		var derr *types.DeserializationError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "bad.yml", derr.Source)
		assert.Equal(t, "yaml", derr.Format)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := format.DecodeMap(strings.NewReader("{not json"), format.KindJSON, "bad.json")
		require.Error(t, err)

		var derr *types.DeserializationError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "json", derr.Format)
	})
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/maps/python.yml", []byte(mapYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/maps/python.json", []byte(mapJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/maps/empty.yml", []byte(""), 0o644))

	t.Run("yaml file", func(t *testing.T) {
		c, err := format.Load(fs, "/maps/python.yml")
		require.NoError(t, err)
		require.NotNil(t, c)

		e, ok := c.Lookup("library/json")
		require.True(t, ok)
		assert.Equal(t, "library/json.html", e.Location)
	})

	t.Run("json file", func(t *testing.T) {
		c, err := format.Load(fs, "/maps/python.json")
		require.NoError(t, err)
		require.NotNil(t, c)
	})

	t.Run("empty file yields untyped nil", func(t *testing.T) {
		c, err := format.Load(fs, "/maps/empty.yml")
		require.NoError(t, err)
		assert.Nil(t, c)
		// The untyped nil matters: a typed nil inside the interface would
		// slip past the caller's empty-document guard.
		assert.True(t, c == nil)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := format.Load(fs, "/maps/absent.yml")
		assert.Error(t, err)
	})
}

// writeZip builds a zip archive from name->content pairs in member order.
func writeZip(t *testing.T, members [][2]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, m := range members {
		w, err := zw.Create(m[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(m[1]))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestOpenArchive(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("multiple members in order", func(t *testing.T) {
		data := writeZip(t, [][2]string{
			{"python.yml", "entries:\n  - name: shared\n    location: from-python.html\n"},
			{"go.json", `{"entries": [{"name": "shared", "location": "from-go.html"}, {"name": "fmt", "location": "fmt.html"}]}`},
		})
		require.NoError(t, afero.WriteFile(fs, "/maps/bundle.zip", data, 0o644))

		a, err := format.OpenArchive(fs, "/maps/bundle.zip")
		require.NoError(t, err)
		assert.Len(t, a.Members(), 2)

		// First member wins for duplicated names.
		e, ok := a.Lookup("shared")
		require.True(t, ok)
		assert.Equal(t, "from-python.html", e.Location)

		_, ok = a.Lookup("fmt")
		assert.True(t, ok)
	})

	t.Run("empty members skipped", func(t *testing.T) {
		data := writeZip(t, [][2]string{
			{"empty.yml", ""},
			{"real.yml", "entries:\n  - name: x\n    location: x.html\n"},
		})
		require.NoError(t, afero.WriteFile(fs, "/maps/sparse.zip", data, 0o644))

		a, err := format.OpenArchive(fs, "/maps/sparse.zip")
		require.NoError(t, err)
		assert.Len(t, a.Members(), 1)
	})

	t.Run("malformed member fails the open", func(t *testing.T) {
		data := writeZip(t, [][2]string{
			{"bad.json", "{broken"},
		})
		require.NoError(t, afero.WriteFile(fs, "/maps/bad.zip", data, 0o644))

		_, err := format.OpenArchive(fs, "/maps/bad.zip")
		require.Error(t, err)

		var derr *types.DeserializationError
		assert.ErrorAs(t, err, &derr)
	})

	t.Run("not a zip", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/maps/fake.zip", []byte("plain text"), 0o644))

		_, err := format.OpenArchive(fs, "/maps/fake.zip")
		require.Error(t, err)

		var derr *types.DeserializationError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "zip", derr.Format)
	})
}
