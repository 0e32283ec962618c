// Package client wires the local-first data layer into a running
// application: storage engine, operation queue, sync engine, cache, quota
// tracker, vault guard and their background workers.
package client

import (
	"context"
	"fmt"

	"github.com/mkarpushin/go-journal-keeper/internal/adapter"
	"github.com/mkarpushin/go-journal-keeper/internal/cache"
	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/connectivity"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/quota"
	"github.com/mkarpushin/go-journal-keeper/internal/queue"
	"github.com/mkarpushin/go-journal-keeper/internal/service"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
	"github.com/mkarpushin/go-journal-keeper/internal/syncer"
	"github.com/mkarpushin/go-journal-keeper/internal/vault"
	"github.com/mkarpushin/go-journal-keeper/internal/workers"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// App owns the data layer's components and background workers.
type App struct {
	services *service.ClientServices
	monitor  *connectivity.Monitor
	workers  *workers.Workers
	engine   store.Engine
	logger   *logger.Logger
}

// NewApp constructs the full data layer from the merged configuration.
func NewApp(cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	ctx := context.Background()

	engine, err := store.NewSQLiteEngine(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create storage engine: %w", err)
	}

	// The client starts optimistic: the first failed request flips the
	// monitor to offline via the platform signal wiring.
	monitor := connectivity.NewMonitor(true, log)
	backend := adapter.NewHTTPBackend(cfg.Adapter, log)

	opQueue, err := queue.New(ctx, engine, log)
	if err != nil {
		return nil, fmt.Errorf("restore operation queue: %w", err)
	}

	syncEngine := syncer.NewEngine(opQueue, backend, monitor, cfg.Sync, log)
	syncJob := syncer.NewJob(syncEngine, monitor, log)

	cacheStore, err := cache.NewStore(ctx, engine, cfg.Cache.CriticalCollections, log)
	if err != nil {
		return nil, fmt.Errorf("restore cache registry: %w", err)
	}
	sweepJob := cache.NewSweepJob(cacheStore, log)

	quotaTracker := quota.NewTracker(engine)
	guard := vault.NewGuard(engine, vault.NewBcryptHasher(cfg.Vault.HashCost), cfg.Vault, log)

	data := service.NewDataService(opQueue, cacheStore, quotaTracker, backend, monitor, log)

	syncEngine.OnTerminalFailure(func(op models.PendingOperation, err error) {
		log.Error().
			Err(err).
			Int64("op_id", op.ID).
			Str("entity_type", op.EntityType).
			Msg("mutation permanently failed")
	})

	return &App{
		services: service.NewClientServices(data, guard),
		monitor:  monitor,
		workers: workers.NewWorkers(
			workers.Interval(cfg.Sync.DrainInterval, syncJob.Start, syncJob.Stop),
			workers.Interval(cfg.Cache.SweepInterval, sweepJob.Start, sweepJob.Stop),
		),
		engine: engine,
		logger: log,
	}, nil
}

// Services exposes the caller-facing API to the UI layer.
func (a *App) Services() *service.ClientServices {
	return a.services
}

// Monitor exposes the connectivity monitor so the platform layer can feed
// online/offline signals into the data layer.
func (a *App) Monitor() *connectivity.Monitor {
	return a.monitor
}

// Run starts the background workers and blocks until ctx is cancelled, then
// shuts everything down and closes the storage engine.
func (a *App) Run(ctx context.Context) error {
	a.workers.StartAll(ctx)
	a.logger.Info().Msg("data layer started")

	<-ctx.Done()

	a.workers.StopAll()
	a.logger.Info().Msg("data layer stopped")

	return a.engine.Close()
}
