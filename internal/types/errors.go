package types

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a relative reference is absent from every
// configured search directory.
type NotFoundError struct {
	Ref         string   // the reference as given by the caller
	SearchPaths []string // every directory consulted, in search order
}

// Error returns the string representation of the NotFoundError.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	sb.WriteString("reference '")
	sb.WriteString(e.Ref)
	sb.WriteString("' not found in any search directory: [")
	sb.WriteString(strings.Join(e.SearchPaths, ", "))
	sb.WriteString("]")

	return sb.String()
}

// UnsupportedSchemeError is returned when an absolute reference uses a
// scheme other than file, http, or https.
type UnsupportedSchemeError struct {
	Ref    string
	Scheme string
}

// Error returns the string representation of the UnsupportedSchemeError.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("reference '%s' uses unsupported scheme '%s' (supported: file, http, https)", e.Ref, e.Scheme)
}

// InvalidDocumentError is returned when deserialization succeeded but
// produced an empty document.
type InvalidDocumentError struct {
	Source string
}

// Error returns the string representation of the InvalidDocumentError.
func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("document at '%s' is empty or invalid", e.Source)
}

// TransportError represents a network-level failure while fetching a
// remote reference: DNS, connection, timeout, or a non-2xx status.
type TransportError struct {
	URL    string
	Status int // HTTP status code, 0 when the request never completed
	Err    error
}

// Error returns the string representation of the TransportError.
func (e *TransportError) Error() string {
	var sb strings.Builder
	sb.WriteString("fetch '")
	sb.WriteString(e.URL)
	sb.WriteString("' failed")

	if e.Status != 0 {
		fmt.Fprintf(&sb, " with status %d", e.Status)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeserializationError represents malformed JSON, YAML, or archive content.
type DeserializationError struct {
	Source string // file path or URL of the document
	Format string // "json", "yaml", or "zip"
	Err    error
}

// Error returns the string representation of the DeserializationError.
func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to deserialize %s document '%s': %v", e.Format, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeserializationError) Unwrap() error {
	return e.Err
}
