package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/xrefmap/internal/document"
)

func TestMapLookup(t *testing.T) {
	m := &document.Map{
		Entries: []document.Entry{
			{Name: "library/json", Location: "library/json.html"},
			{Name: "library/http", Location: "library/http.html"},
		},
	}

	e, ok := m.Lookup("library/http")
	require.True(t, ok)
	assert.Equal(t, "library/http.html", e.Location)

	_, ok = m.Lookup("library/ftp")
	assert.False(t, ok)
}

func TestMapResolve(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		location string
		want     string
	}{
		{
			name:     "relative location joined with base",
			base:     "https://docs.example.org/py/",
			location: "library/json.html",
			want:     "https://docs.example.org/py/library/json.html",
		},
		{
			name:     "base without trailing slash",
			base:     "https://docs.example.org/py",
			location: "library/json.html",
			want:     "https://docs.example.org/py/library/json.html",
		},
		{
			name:     "leading slash on location",
			base:     "https://docs.example.org/py/",
			location: "/library/json.html",
			want:     "https://docs.example.org/py/library/json.html",
		},
		{
			name:     "absolute location passes through",
			base:     "https://docs.example.org/py/",
			location: "https://elsewhere.example.com/json.html",
			want:     "https://elsewhere.example.com/json.html",
		},
		{
			name:     "no base returns location untouched",
			base:     "",
			location: "library/json.html",
			want:     "library/json.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &document.Map{
				BaseURL: tt.base,
				Entries: []document.Entry{{Name: "x", Location: tt.location}},
			}

			got, ok := m.Resolve("x")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		m := &document.Map{}
		_, ok := m.Resolve("nope")
		assert.False(t, ok)
	})
}

func TestArchiveFirstMatchWins(t *testing.T) {
	first := &document.Map{
		BaseURL: "https://first.example.org/",
		Entries: []document.Entry{{Name: "shared", Location: "a.html"}},
	}
	second := &document.Map{
		BaseURL: "https://second.example.org/",
		Entries: []document.Entry{
			{Name: "shared", Location: "b.html"},
			{Name: "only-second", Location: "c.html"},
		},
	}

	a := document.NewArchive([]*document.Map{first, second})

	e, ok := a.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, "a.html", e.Location)

	// Resolution uses the owning member's base URL.
	target, ok := a.Resolve("only-second")
	require.True(t, ok)
	assert.Equal(t, "https://second.example.org/c.html", target)

	_, ok = a.Lookup("absent")
	assert.False(t, ok)
}
