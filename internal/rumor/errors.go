package rumor

import "errors"

// Sentinel errors distinguishing registry outcomes. Callers match them with
// errors.Is to choose transport-specific responses.
var (
	// ErrNotFound reports that no rumor has the requested id.
	ErrNotFound = errors.New("rumor not found")
	// ErrBusy reports that the registry lock was not acquired within the wait bound.
	ErrBusy = errors.New("registry busy")
	// ErrInvalidInput reports a create payload missing required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage reports that durable storage could not be read or written.
	ErrStorage = errors.New("storage error")
)
