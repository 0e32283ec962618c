package store

import (
	"context"

	"github.com/mkarpushin/go-journal-keeper/models"
)

// Entry is a single keyed value inside a collection.
type Entry struct {
	Key   string
	Value []byte
}

// Engine is the physical storage collaborator shared by the operation queue,
// the cache store and the vault record store. Implementations must be safe
// for concurrent use and must apply each call atomically; no caller holds an
// engine-level lock across its own suspension points.
//
// Collections are flat namespaces; keys within a collection are unique and
// List returns entries in ascending key order, which the queue relies on for
// FIFO draining.
type Engine interface {
	// Get returns the value stored under collection/key.
	// Returns ErrNotFound if no such record exists.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Put upserts the value under collection/key. The record is durable
	// before Put returns; on failure no success is ever reported.
	Put(ctx context.Context, collection, key string, value []byte) error

	// Delete removes the record under collection/key. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, collection, key string) error

	// DeleteAll removes every record in the collection.
	DeleteAll(ctx context.Context, collection string) error

	// List returns all entries of the collection in ascending key order.
	List(ctx context.Context, collection string) ([]Entry, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// EstimateUsage returns a best-effort used/quota byte estimate for the
	// whole engine. The underlying store may not support exact accounting.
	EstimateUsage(ctx context.Context) (models.QuotaSnapshot, error)

	// Close releases the underlying resources.
	Close() error
}
