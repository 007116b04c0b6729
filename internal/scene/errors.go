package scene

import "errors"

var (
	// ErrNotFound is returned when a scene or quick slot does not exist.
	ErrNotFound = errors.New("scene not found")

	// ErrValidation is returned for requests the store refuses to run: empty
	// names, names using the reserved quick-slot prefix, slots out of range.
	ErrValidation = errors.New("invalid scene request")
)

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "scene store " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
