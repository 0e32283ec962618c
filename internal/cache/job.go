package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/logger"
)

// SweepJob runs SweepAll on a ticker. The job is idle until Start is called.
type SweepJob struct {
	store  *Store
	logger *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweepJob creates a sweep job for the given cache store.
func NewSweepJob(store *Store, log *logger.Logger) *SweepJob {
	return &SweepJob{store: store, logger: log}
}

// Start stops any previously running job, then launches a background
// goroutine that sweeps every interval. If interval is zero or negative it
// defaults to 10 minutes. The goroutine exits when ctx is cancelled or Stop
// is called.
func (j *SweepJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if _, err := j.store.SweepAll(jobCtx); err != nil && jobCtx.Err() == nil {
					j.logger.Warn().Err(err).Msg("cache sweep failed")
				}
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it has
// fully exited. Safe to call when the job is not running.
func (j *SweepJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
