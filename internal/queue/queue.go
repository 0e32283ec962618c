// Package queue implements the durable FIFO of pending mutations. Every
// enqueued operation stays observable via List until it is explicitly
// removed; the queue never drops a mutation on its own.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// opCollection is the storage-engine collection holding queue entries.
// Keys are zero-padded operation ids so the engine's ascending key order is
// exactly enqueue order.
const opCollection = "op_queue"

// Queue is the durable, ordered list of pending mutations. All mutating
// methods are atomic with respect to each other; the in-flight set keeps a
// drain pass from handing out the same operation twice.
type Queue struct {
	engine store.Engine
	logger *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	nextID   int64
	inFlight map[int64]struct{}
}

// New creates a Queue over the given engine and restores the id sequence
// from the persisted entries, so ids stay monotonic across restarts.
func New(ctx context.Context, engine store.Engine, log *logger.Logger) (*Queue, error) {
	entries, err := engine.List(ctx, opCollection)
	if err != nil {
		return nil, fmt.Errorf("restore operation queue: %w", err)
	}

	var lastID int64
	if len(entries) > 0 {
		lastID, err = parseOpKey(entries[len(entries)-1].Key)
		if err != nil {
			return nil, fmt.Errorf("restore operation queue: %w", err)
		}
	}

	return &Queue{
		engine:   engine,
		logger:   log,
		now:      time.Now,
		nextID:   lastID + 1,
		inFlight: make(map[int64]struct{}),
	}, nil
}

// Enqueue validates op, normalizes PATCH to PUT, assigns a fresh monotonic id
// and createdAt, and persists the operation. The entry is durable before
// Enqueue returns. Append order defines retry order.
func (q *Queue) Enqueue(ctx context.Context, op models.PendingOperation) (models.PendingOperation, error) {
	switch op.Method {
	case models.MethodPost, models.MethodPut, models.MethodDelete:
	case models.MethodPatch:
		op.Method = models.MethodPut
	default:
		return models.PendingOperation{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, op.Method)
	}
	if op.Endpoint == "" {
		return models.PendingOperation{}, ErrEmptyEndpoint
	}

	q.mu.Lock()
	op.ID = q.nextID
	q.nextID++
	q.mu.Unlock()

	op.AttemptCount = 0
	op.LastAttemptAt = nil
	op.CreatedAt = q.now().UTC()

	payload, err := json.Marshal(op)
	if err != nil {
		return models.PendingOperation{}, fmt.Errorf("encode pending operation: %w", err)
	}
	if err = q.engine.Put(ctx, opCollection, opKey(op.ID), payload); err != nil {
		return models.PendingOperation{}, fmt.Errorf("persist pending operation: %w", err)
	}

	q.logger.Debug().
		Int64("op_id", op.ID).
		Str("method", op.Method).
		Str("endpoint", op.Endpoint).
		Msg("operation enqueued")

	return op, nil
}

// DequeueNext returns the oldest operation that is not currently in flight
// and marks it in flight. The second return value is false when every
// pending operation is either in flight or the queue is empty.
//
// The caller must finish the handout with Remove (confirmed success or
// terminal failure) or Release (retryable failure, operation stays queued).
func (q *Queue) DequeueNext(ctx context.Context) (models.PendingOperation, bool, error) {
	entries, err := q.engine.List(ctx, opCollection)
	if err != nil {
		return models.PendingOperation{}, false, fmt.Errorf("list pending operations: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, entry := range entries {
		var op models.PendingOperation
		if err = json.Unmarshal(entry.Value, &op); err != nil {
			return models.PendingOperation{}, false, fmt.Errorf("decode pending operation %s: %w", entry.Key, err)
		}
		if _, busy := q.inFlight[op.ID]; busy {
			continue
		}
		q.inFlight[op.ID] = struct{}{}
		return op, true, nil
	}

	return models.PendingOperation{}, false, nil
}

// Release returns an in-flight operation to the pending state without
// removing it, typically after a retryable delivery failure.
func (q *Queue) Release(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, id)
}

// Remove deletes the operation after confirmed success or a terminal
// failure. Removing an already-removed id is a no-op.
func (q *Queue) Remove(ctx context.Context, id int64) error {
	if err := q.engine.Delete(ctx, opCollection, opKey(id)); err != nil {
		return fmt.Errorf("remove pending operation %d: %w", id, err)
	}
	q.Release(id)
	return nil
}

// MarkAttempt increments the operation's attempt counter and stamps the
// attempt time. Returns ErrOperationNotFound if the operation is gone.
func (q *Queue) MarkAttempt(ctx context.Context, id int64) (models.PendingOperation, error) {
	raw, err := q.engine.Get(ctx, opCollection, opKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.PendingOperation{}, fmt.Errorf("%w: id %d", ErrOperationNotFound, id)
		}
		return models.PendingOperation{}, fmt.Errorf("load pending operation %d: %w", id, err)
	}

	var op models.PendingOperation
	if err = json.Unmarshal(raw, &op); err != nil {
		return models.PendingOperation{}, fmt.Errorf("decode pending operation %d: %w", id, err)
	}

	now := q.now().UTC()
	op.AttemptCount++
	op.LastAttemptAt = &now

	payload, err := json.Marshal(op)
	if err != nil {
		return models.PendingOperation{}, fmt.Errorf("encode pending operation %d: %w", id, err)
	}
	if err = q.engine.Put(ctx, opCollection, opKey(id), payload); err != nil {
		return models.PendingOperation{}, fmt.Errorf("persist attempt for operation %d: %w", id, err)
	}

	return op, nil
}

// List returns every pending operation in FIFO order, including ones
// currently in flight. Used for UI badges and diagnostics.
func (q *Queue) List(ctx context.Context) ([]models.PendingOperation, error) {
	entries, err := q.engine.List(ctx, opCollection)
	if err != nil {
		return nil, fmt.Errorf("list pending operations: %w", err)
	}

	ops := make([]models.PendingOperation, 0, len(entries))
	for _, entry := range entries {
		var op models.PendingOperation
		if err = json.Unmarshal(entry.Value, &op); err != nil {
			return nil, fmt.Errorf("decode pending operation %s: %w", entry.Key, err)
		}
		ops = append(ops, op)
	}

	return ops, nil
}

// Len returns the number of pending operations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	count, err := q.engine.Count(ctx, opCollection)
	if err != nil {
		return 0, fmt.Errorf("count pending operations: %w", err)
	}
	return count, nil
}

func opKey(id int64) string {
	return fmt.Sprintf("%020d", id)
}

func parseOpKey(key string) (int64, error) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed operation key %q: %w", key, err)
	}
	return id, nil
}
