// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package models

import (
	"encoding/json"
	"time"
)

// HTTP methods accepted by the operation queue. PATCH is accepted at the
// submission boundary but is normalized to PUT before persistence; the queue
// itself never stores PATCH.
const (
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// PendingOperation is a durable record of a mutation that could not be
// delivered to the backend at the moment it was issued. Operations are
// drained strictly in ID order, so IDs must be assigned from a monotonic
// sequence by the queue.
type PendingOperation struct {
	// ID is the queue-assigned monotonic identifier. Enqueue order defines
	// retry order.
	ID int64 `json:"id"`

	// Method is the HTTP method of the deferred mutation: POST, PUT or DELETE.
	Method string `json:"method"`

	// Endpoint is the backend path the mutation targets, e.g. "/api/journal".
	Endpoint string `json:"endpoint"`

	// Payload is the JSON-encoded request body, kept opaque by the queue.
	Payload json.RawMessage `json:"payload,omitempty"`

	// EntityType names the domain entity the mutation belongs to
	// (e.g. "journal", "conversation").
	EntityType string `json:"entity_type"`

	// EntityID identifies the concrete entity instance, when known.
	// Empty for creations where the server assigns the identifier.
	EntityID string `json:"entity_id,omitempty"`

	// AttemptCount is the number of delivery attempts made so far.
	AttemptCount int `json:"attempt_count"`

	// CreatedAt is the enqueue timestamp.
	CreatedAt time.Time `json:"created_at"`

	// LastAttemptAt is the timestamp of the most recent delivery attempt,
	// nil until the first attempt.
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}

// MutationStatus is the caller-visible outcome of SubmitMutation.
type MutationStatus string

const (
	// MutationSucceeded means the backend confirmed the mutation online.
	MutationSucceeded MutationStatus = "success"

	// MutationQueued means the mutation was durably enqueued and will be
	// delivered by the sync engine once connectivity allows.
	MutationQueued MutationStatus = "queued"

	// MutationFailed means the backend rejected the mutation terminally;
	// retrying the same payload would never succeed.
	MutationFailed MutationStatus = "error"
)

// MutationResult reports what happened to a submitted mutation.
type MutationResult struct {
	Status MutationStatus `json:"status"`

	// OperationID is set when Status is MutationQueued and identifies the
	// queued operation, usable for cancellation before drain.
	OperationID int64 `json:"operation_id,omitempty"`
}
