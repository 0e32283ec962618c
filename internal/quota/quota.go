// Package quota derives advisory storage usage figures from the storage
// engine. The numbers are read-only telemetry for the UI and must never be
// used to gate a write.
package quota

import (
	"context"
	"fmt"

	"github.com/mkarpushin/go-journal-keeper/internal/store"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// Tracker computes point-in-time usage estimates. Snapshots are recomputed
// on every call and never persisted.
type Tracker struct {
	engine store.Engine
}

// NewTracker creates a Tracker over the given engine.
func NewTracker(engine store.Engine) *Tracker {
	return &Tracker{engine: engine}
}

// Snapshot returns the engine's best-effort used/quota estimate.
func (t *Tracker) Snapshot(ctx context.Context) (models.QuotaSnapshot, error) {
	snapshot, err := t.engine.EstimateUsage(ctx)
	if err != nil {
		return models.QuotaSnapshot{}, fmt.Errorf("estimate storage usage: %w", err)
	}
	return snapshot, nil
}

// UsagePercentage returns used/quota as a percentage, and 0 when the quota
// is unknown (zero).
func (t *Tracker) UsagePercentage(ctx context.Context) (float64, error) {
	snapshot, err := t.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return Percentage(snapshot), nil
}

// Percentage computes the usage percentage of an existing snapshot.
func Percentage(snapshot models.QuotaSnapshot) float64 {
	if snapshot.QuotaBytes == 0 {
		return 0
	}
	return float64(snapshot.UsedBytes) / float64(snapshot.QuotaBytes) * 100
}
