package queue

import "errors"

// Sentinel errors returned by queue operations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrUnsupportedMethod is returned when an operation carries an HTTP
	// method the queue does not persist (anything outside POST/PUT/PATCH/
	// DELETE; PATCH itself is normalized to PUT, never stored).
	ErrUnsupportedMethod = errors.New("unsupported operation method")

	// ErrEmptyEndpoint is returned when an operation has no target endpoint.
	ErrEmptyEndpoint = errors.New("operation endpoint is empty")

	// ErrOperationNotFound is returned when MarkAttempt targets an
	// operation id that is no longer in the queue.
	ErrOperationNotFound = errors.New("pending operation not found")
)
