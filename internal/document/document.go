// Package document defines the cross-reference map data model shared by the
// local and remote acquisition paths.
package document

import (
	"net/url"
	"strings"
)

// Container is the capability every acquired document exposes: looking up a
// reference entry by name and resolving it to a link target. The two
// concrete implementations are Map (a single document) and Archive (a zip
// of documents).
type Container interface {
	// Lookup returns the entry registered under name.
	Lookup(name string) (Entry, bool)

	// Resolve returns the link target for name, joined against the owning
	// document's base URL when the entry location is relative.
	Resolve(name string) (string, bool)
}

// Entry is a single cross-reference record: a symbol or document name mapped
// to a resolvable link target.
type Entry struct {
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Location string `yaml:"location" json:"location"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
}

// Map is an in-memory cross-reference map document.
type Map struct {
	// BaseURL is the prefix relative entry locations resolve against.
	// It is either declared by the document itself or inferred from the
	// location the document was fetched from. Once set it is never
	// recomputed.
	BaseURL string  `yaml:"base,omitempty" json:"base,omitempty"`
	Entries []Entry `yaml:"entries" json:"entries"`
}

// Lookup returns the entry registered under name.
func (m *Map) Lookup(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}

	return Entry{}, false
}

// Resolve returns the link target for name. Absolute entry locations are
// returned as-is; relative ones are joined against BaseURL.
func (m *Map) Resolve(name string) (string, bool) {
	e, ok := m.Lookup(name)
	if !ok {
		return "", false
	}

	return m.join(e.Location), true
}

func (m *Map) join(location string) string {
	if m.BaseURL == "" {
		return location
	}

	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}

	return strings.TrimSuffix(m.BaseURL, "/") + "/" + strings.TrimPrefix(location, "/")
}

// Archive is a container holding multiple embedded map documents, loaded
// from a zip file. Lookups consult members in archive order; the first
// member containing the name wins.
type Archive struct {
	members []*Map
}

// NewArchive creates an Archive over the given member documents.
func NewArchive(members []*Map) *Archive {
	return &Archive{members: members}
}

// Members returns the embedded map documents in archive order.
func (a *Archive) Members() []*Map {
	return a.members
}

// Lookup returns the entry registered under name in the first member that
// contains it.
func (a *Archive) Lookup(name string) (Entry, bool) {
	for _, m := range a.members {
		if e, ok := m.Lookup(name); ok {
			return e, true
		}
	}

	return Entry{}, false
}

// Resolve returns the link target for name from the first member that
// contains it, joined against that member's own base URL.
func (a *Archive) Resolve(name string) (string, bool) {
	for _, m := range a.members {
		if target, ok := m.Resolve(name); ok {
			return target, true
		}
	}

	return "", false
}
