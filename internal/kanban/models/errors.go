package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingContext means an operation needing an active board or view ran without one.
	ErrMissingContext = errors.New("no active board or view")
	// ErrNotFound means an id is absent from the current snapshot.
	ErrNotFound = errors.New("not found")
	// ErrReadOnlySource means the view's cards come from a source that does not accept new cards.
	ErrReadOnlySource = errors.New("cards cannot be added to this source")
)

// PersistenceError wraps a failure of the storage collaborator.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
