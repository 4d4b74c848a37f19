// Package kberr defines the error kinds surfaced by the knowledge store.
// Callers match them with errors.Is to pick retry-vs-surface behavior.
package kberr

import "errors"

var (
	// ErrNotFound marks a knowledge item that is absent or not owned by the caller.
	ErrNotFound = errors.New("knowledge not found")
	// ErrBrainNotFound marks an unresolvable brain id.
	ErrBrainNotFound = errors.New("brain not found")
	// ErrNotLinked marks an unlink of a knowledge/brain pair that was never linked.
	ErrNotLinked = errors.New("knowledge not linked to brain")
	// ErrValidation marks malformed input, e.g. a parent_id that does not resolve.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateContent marks a content-hash collision within one user's items.
	ErrDuplicateContent = errors.New("duplicate content")
	// ErrConflict marks a uniqueness violation other than the content hash.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition marks an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInconsistentTree marks a cycle detected while walking parent links.
	ErrInconsistentTree = errors.New("inconsistent knowledge tree")
	// ErrStorage marks an object storage failure returned by the bucket
	// client. The coordinator swallows it after the metadata commit; it is
	// never returned from a committed metadata operation.
	ErrStorage = errors.New("object storage failure")
)
