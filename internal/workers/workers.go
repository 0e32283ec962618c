package workers

import (
	"context"
	"time"
)

// Workers aggregates background workers so the application can manage their
// lifecycle as a unit.
type Workers struct {
	workers []Worker
}

// NewWorkers collects the given workers.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// StartAll starts every worker with the shared context.
func (w *Workers) StartAll(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// StopAll stops workers in reverse start order and blocks until all have
// exited.
func (w *Workers) StopAll() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}

// intervalWorker adapts a Start(ctx, interval)/Stop pair, the shape shared
// by the drain and sweep jobs, to the Worker interface.
type intervalWorker struct {
	interval time.Duration
	start    func(ctx context.Context, interval time.Duration)
	stop     func()
}

// Interval wraps a ticker-style job into a Worker with a fixed interval.
func Interval(interval time.Duration, start func(context.Context, time.Duration), stop func()) Worker {
	return &intervalWorker{interval: interval, start: start, stop: stop}
}

func (w *intervalWorker) Start(ctx context.Context) {
	w.start(ctx, w.interval)
}

func (w *intervalWorker) Stop() {
	w.stop()
}
