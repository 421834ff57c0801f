package types

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned by id-based store operations when no
	// entry with the given id exists.
	ErrEntryNotFound = errors.New("knowledge entry not found")

	// ErrInvalidEntry is returned when an entry's key or value is empty
	// after trimming.
	ErrInvalidEntry = errors.New("entry key and value must not be empty")

	// ErrServiceExhausted is returned by the AI gateway when a quota
	// error was hit on every configured model tier. Callers should
	// surface it as "temporarily unavailable, retry later".
	ErrServiceExhausted = errors.New("all model tiers exhausted")
)

// FormatError reports a structurally invalid knowledge base file, e.g. a
// JSON object without an entries array. It is not auto-recoverable.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid knowledge base format in %s: %s", e.Path, e.Reason)
}

// PersistenceError reports an I/O failure that survived the store's
// bounded retries.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("knowledge base %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
