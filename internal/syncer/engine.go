// Package syncer drains the operation queue against the backend whenever
// connectivity allows, retrying transient failures with capped exponential
// backoff and surfacing terminal failures exactly once.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sethvargo/go-retry"

	"github.com/mkarpushin/go-journal-keeper/internal/adapter"
	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/connectivity"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/queue"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// errWentOffline aborts a delivery attempt without consuming the operation
// when the monitor reports offline mid-drain.
var errWentOffline = errors.New("connectivity lost during drain")

// errOpCancelled reports that the operation disappeared from the queue
// between dequeue and attempt, i.e. the caller cancelled it. Nothing was
// sent and nothing is left to remove.
var errOpCancelled = errors.New("operation cancelled before delivery")

// TerminalFailureFunc receives operations that will never succeed by
// retrying unchanged, after they have been removed from the queue.
type TerminalFailureFunc func(op models.PendingOperation, err error)

// Engine drains pending operations in strict FIFO order. Only one drain may
// be active at a time; a trigger arriving during a drain is coalesced into
// one more pass after the current one finishes, never a concurrent drain.
type Engine struct {
	queue   *queue.Queue
	backend adapter.Backend
	monitor *connectivity.Monitor
	logger  *logger.Logger
	cfg     config.Sync

	mu       sync.Mutex
	draining bool
	rerun    bool

	onTerminal TerminalFailureFunc
}

// NewEngine creates a sync engine over the given queue, backend and monitor.
func NewEngine(q *queue.Queue, backend adapter.Backend, monitor *connectivity.Monitor, cfg config.Sync, log *logger.Logger) *Engine {
	return &Engine{
		queue:   q,
		backend: backend,
		monitor: monitor,
		logger:  log,
		cfg:     cfg,
	}
}

// OnTerminalFailure registers the callback invoked for every terminally
// failed operation. Must be called before the first Drain.
func (e *Engine) OnTerminalFailure(fn TerminalFailureFunc) {
	e.onTerminal = fn
}

// Drain delivers pending operations until the queue is empty, connectivity
// is lost, or ctx is cancelled. If a drain is already running the call
// returns immediately after scheduling one extra pass.
func (e *Engine) Drain(ctx context.Context) error {
	e.mu.Lock()
	if e.draining {
		e.rerun = true
		e.mu.Unlock()
		return nil
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	for {
		err := e.drainPass(ctx)

		e.mu.Lock()
		again := e.rerun
		e.rerun = false
		e.mu.Unlock()

		if err != nil || !again {
			return err
		}
	}
}

func (e *Engine) drainPass(ctx context.Context) error {
	for {
		op, ok, err := e.queue.DequeueNext(ctx)
		if err != nil {
			return fmt.Errorf("dequeue next operation: %w", err)
		}
		if !ok {
			return nil
		}

		err = e.deliver(ctx, op)
		switch {
		case err == nil:
			if err = e.queue.Remove(ctx, op.ID); err != nil {
				return err
			}
			e.logger.Debug().Int64("op_id", op.ID).Msg("operation delivered")

		case errors.Is(err, errOpCancelled):
			e.queue.Release(op.ID)
			e.logger.Debug().Int64("op_id", op.ID).Msg("operation cancelled before delivery")

		case errors.Is(err, errWentOffline):
			e.queue.Release(op.ID)
			return nil

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			e.queue.Release(op.ID)
			return err

		default:
			// Explicit 4xx rejection or attempts exhausted: surface once,
			// then drop so later operations are not blocked forever.
			e.logger.Error().
				Err(err).
				Int64("op_id", op.ID).
				Str("method", op.Method).
				Str("endpoint", op.Endpoint).
				Msg("operation failed terminally")
			if removeErr := e.queue.Remove(ctx, op.ID); removeErr != nil {
				return removeErr
			}
			if e.onTerminal != nil {
				e.onTerminal(op, err)
			}
		}
	}
}

// deliver attempts one operation with exponential backoff between transient
// failures. A nil return means the backend confirmed the mutation; any error
// is terminal for this operation except the context/offline signals (the
// operation stays queued) and errOpCancelled (nothing left to deliver).
func (e *Engine) deliver(ctx context.Context, op models.PendingOperation) error {
	remaining := e.cfg.MaxAttempts - op.AttemptCount
	if remaining <= 0 {
		return fmt.Errorf("max delivery attempts exhausted (%d)", op.AttemptCount)
	}

	backoff := retry.WithMaxRetries(uint64(remaining-1),
		retry.WithCappedDuration(e.cfg.MaxDelay,
			retry.WithJitter(e.cfg.BaseDelay/2,
				retry.NewExponential(e.cfg.BaseDelay))))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !e.monitor.Online() {
			return errWentOffline
		}

		current, err := e.queue.MarkAttempt(ctx, op.ID)
		if err != nil {
			if errors.Is(err, queue.ErrOperationNotFound) {
				return errOpCancelled
			}
			return err
		}

		_, sendErr := e.backend.Send(ctx, op.Method, op.Endpoint, op.Payload)
		if sendErr == nil {
			return nil
		}
		if errors.Is(sendErr, adapter.ErrTransient) {
			e.logger.Warn().
				Err(sendErr).
				Int64("op_id", op.ID).
				Int("attempt", current.AttemptCount).
				Msg("delivery attempt failed, retrying with backoff")
			return retry.RetryableError(sendErr)
		}
		return sendErr
	})
}
