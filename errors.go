// Package marginalia anchors comments to spans of text inside a mutable document
// and relocates those spans after the document changes, without any edit history.
package marginalia

import (
	"errors"
	"fmt"
)

// Selection errors
var (
	// ErrInvalidSelection indicates that a selection is empty or its boundaries
	// could not be located in the document.
	ErrInvalidSelection = errors.New("invalid selection")
)

// Position errors
var (
	// ErrInvalidPosition indicates that an offset is out of bounds.
	ErrInvalidPosition = errors.New("position out of bounds")

	// ErrNodeNotFound indicates that a node ID does not exist in the document.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotALeaf indicates that an operation expected a text leaf but got an element.
	ErrNotALeaf = errors.New("expected text leaf")
)

// Document errors
var (
	// ErrDocumentClosed indicates that the document was closed and its tree released.
	ErrDocumentClosed = errors.New("document closed")
)

// Configuration errors
var (
	// ErrInvalidConfig indicates that a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// InvalidSelectionError is returned by Extract when a selection cannot become an anchor.
// It matches ErrInvalidSelection with errors.Is.
type InvalidSelectionError struct {
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSelection, e.Reason)
}

// Unwrap returns ErrInvalidSelection.
func (e *InvalidSelectionError) Unwrap() error {
	return ErrInvalidSelection
}

func invalidSelection(format string, args ...any) error {
	return &InvalidSelectionError{Reason: fmt.Sprintf(format, args...)}
}
