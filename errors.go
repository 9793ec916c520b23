package xrefmap

import "github.com/arloliu/xrefmap/internal/types"

// NotFoundError is returned when a relative reference is absent from every
// configured search directory. Its message lists the searched directories
// in order.
type NotFoundError = types.NotFoundError

// UnsupportedSchemeError is returned for absolute references with a scheme
// outside file, http, and https.
type UnsupportedSchemeError = types.UnsupportedSchemeError

// InvalidDocumentError is returned when a document deserialized to nothing.
type InvalidDocumentError = types.InvalidDocumentError

// TransportError is returned for network-level fetch failures.
type TransportError = types.TransportError

// DeserializationError is returned for malformed JSON, YAML, or archive
// content.
type DeserializationError = types.DeserializationError
