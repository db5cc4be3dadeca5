package tree

import (
	"errors"
	"fmt"
)

// Validation errors. All of them are detected before any write, so a
// failed operation never leaves partial state behind.
var (
	// ErrInvalidInput is returned when a label or target is empty
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownParent is returned when a referenced parent does not exist
	ErrUnknownParent = errors.New("parent node not found")
	// ErrForestMismatch is returned when a parent belongs to another forest
	ErrForestMismatch = errors.New("parent belongs to a different forest")
	// ErrInvalidParent is returned when a reparent would create a cycle
	ErrInvalidParent = errors.New("parent is a descendant of the node")
	// ErrHasChildren is returned by a non-cascading delete of a node with children
	ErrHasChildren = errors.New("node has children")
	// ErrBoundary is returned when moving a node beyond its first or last sibling
	ErrBoundary = errors.New("node is already at the boundary")
	// ErrSetMismatch is returned when a reorder payload is not a permutation
	// of the current sibling group
	ErrSetMismatch = errors.New("ordered ids do not match the sibling group")
	// ErrNotFound is returned when the operation target does not exist
	ErrNotFound = errors.New("node not found")
)

// StorageError wraps a store adapter failure. The caller decides whether
// to retry; the tree manager never retries on its own.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
