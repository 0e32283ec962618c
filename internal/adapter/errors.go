package adapter

import "errors"

// Failure classification for backend calls. The sync engine retries only
// ErrTransient failures; everything else is terminal for the attempted
// operation. Callers should use [errors.Is] to match against these values.
var (
	// ErrTransient covers unreachable network, timeouts and 5xx replies.
	// The request may well succeed if repeated later, unchanged.
	ErrTransient = errors.New("transient backend failure")

	// ErrTerminal covers 4xx replies: the backend understood and rejected
	// the request, so retrying the same payload will never succeed.
	ErrTerminal = errors.New("backend rejected request")

	// ErrUnauthorized is the 401 special case of a terminal failure, split
	// out so the caller can trigger re-authentication.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrNoToken is returned by UserID when no bearer token is installed.
	ErrNoToken = errors.New("no bearer token set")
)
