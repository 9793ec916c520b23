package xrefmap

import "github.com/arloliu/xrefmap/internal/document"

// Container is any acquired cross-reference document: a single in-memory
// map or a zip archive of maps, exposed through the same lookup capability.
type Container = document.Container

// Entry is a single cross-reference record.
type Entry = document.Entry

// Map is an in-memory cross-reference map document.
type Map = document.Map

// Archive is a container of multiple embedded map documents loaded from a
// zip file.
type Archive = document.Archive
