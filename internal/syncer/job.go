package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/connectivity"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
)

// Job triggers Engine.Drain on every offline→online transition and on a
// periodic tick. The job is idle until Start is called.
type Job struct {
	engine  *Engine
	monitor *connectivity.Monitor
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a drain job bound to the given engine and monitor.
func NewJob(engine *Engine, monitor *connectivity.Monitor, log *logger.Logger) *Job {
	return &Job{engine: engine, monitor: monitor, logger: log}
}

// Start stops any previously running job, then launches a background
// goroutine that drains on connectivity transitions and every interval. If
// interval is zero or negative it defaults to 5 minutes. The goroutine exits
// when ctx is cancelled or Stop is called.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	transitions := j.monitor.Subscribe()

	go func() {
		defer j.wg.Done()
		defer j.monitor.Unsubscribe(transitions)

		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case event, open := <-transitions:
				if !open {
					return
				}
				if event.Online {
					j.drain(jobCtx)
				}
			case <-t.C:
				if j.monitor.Online() {
					j.drain(jobCtx)
				}
			}
		}
	}()
}

func (j *Job) drain(ctx context.Context) {
	if err := j.engine.Drain(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn().Err(err).Msg("drain pass aborted")
	}
}

// Stop cancels the background goroutine's context and blocks until it has
// fully exited. Safe to call when the job is not running (no-op in that
// case).
func (j *Job) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
