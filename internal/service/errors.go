package service

import "errors"

// Sentinel errors returned by the caller-facing data service. Callers should
// use [errors.Is] to match against these values.
var (
	// ErrInvalidMutation is returned by SubmitMutation for a malformed
	// mutation (unsupported method, empty endpoint or entity type). Never
	// retried, surfaced immediately.
	ErrInvalidMutation = errors.New("invalid mutation")

	// ErrMutationRejected is returned when the backend rejected a mutation
	// terminally during an online attempt. The mutation is not queued:
	// retrying it unchanged would never succeed.
	ErrMutationRejected = errors.New("mutation rejected by backend")
)
