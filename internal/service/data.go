// Package service exposes the caller-facing API of the local-first data
// layer: mutation submission with offline queueing, cached reads, pending
// counts and cache statistics, and the vault gate.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/adapter"
	"github.com/mkarpushin/go-journal-keeper/internal/cache"
	"github.com/mkarpushin/go-journal-keeper/internal/connectivity"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/quota"
	"github.com/mkarpushin/go-journal-keeper/internal/queue"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// DataService is the facade consumed by UI/CLI layers. It owns the decision
// "try online or enqueue" for every mutation and aggregates cache and quota
// figures for display.
type DataService struct {
	queue   *queue.Queue
	cache   *cache.Store
	quota   *quota.Tracker
	backend adapter.Backend
	monitor *connectivity.Monitor
	logger  *logger.Logger
}

// NewDataService wires the facade over the data-layer components.
func NewDataService(
	q *queue.Queue,
	cacheStore *cache.Store,
	quotaTracker *quota.Tracker,
	backend adapter.Backend,
	monitor *connectivity.Monitor,
	log *logger.Logger,
) *DataService {
	return &DataService{
		queue:   q,
		cache:   cacheStore,
		quota:   quotaTracker,
		backend: backend,
		monitor: monitor,
		logger:  log,
	}
}

// SetAuthToken installs the bearer token attached to every subsequent
// backend call, direct submissions and queue drains alike. The UI calls this
// after login and again on token refresh.
func (s *DataService) SetAuthToken(token string) {
	s.backend.SetToken(token)
}

// AuthenticatedUserID returns the user id carried by the current bearer
// token's subject claim. Vault operations are scoped by this id.
func (s *DataService) AuthenticatedUserID() (int64, error) {
	return s.backend.UserID()
}

// SubmitMutation delivers a mutation to the backend, or durably enqueues it
// when the client is offline or the online attempt fails transiently.
//
// Outcomes:
//   - backend confirmed (2xx)      → {status: success}
//   - offline or transient failure → {status: queued} with the operation id
//   - terminal 4xx while online    → {status: error} + ErrMutationRejected;
//     a rejected mutation is never queued, retrying it unchanged cannot
//     succeed (the server is assumed to re-validate every queued mutation
//     anyway).
//
// Malformed mutations fail immediately with ErrInvalidMutation.
func (s *DataService) SubmitMutation(ctx context.Context, endpoint, method string, payload any, entityType, entityID string) (models.MutationResult, error) {
	if err := validateMutation(endpoint, method, entityType); err != nil {
		return models.MutationResult{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.MutationResult{}, fmt.Errorf("%w: encode payload: %w", ErrInvalidMutation, err)
	}

	op := models.PendingOperation{
		Method:     method,
		Endpoint:   endpoint,
		Payload:    body,
		EntityType: entityType,
		EntityID:   entityID,
	}

	if s.monitor.Online() {
		_, sendErr := s.backend.Send(ctx, normalizeMethod(method), endpoint, body)
		if sendErr == nil {
			return models.MutationResult{Status: models.MutationSucceeded}, nil
		}
		if !errors.Is(sendErr, adapter.ErrTransient) {
			s.logger.Warn().
				Err(sendErr).
				Str("endpoint", endpoint).
				Str("entity_type", entityType).
				Msg("mutation rejected during online attempt")
			return models.MutationResult{Status: models.MutationFailed}, fmt.Errorf("%w: %w", ErrMutationRejected, sendErr)
		}
		// The platform may report online while requests fail: fall through
		// to the queue and let the sync engine deliver it later.
	}

	queued, err := s.queue.Enqueue(ctx, op)
	if err != nil {
		if errors.Is(err, queue.ErrUnsupportedMethod) || errors.Is(err, queue.ErrEmptyEndpoint) {
			return models.MutationResult{}, fmt.Errorf("%w: %w", ErrInvalidMutation, err)
		}
		return models.MutationResult{}, err
	}

	return models.MutationResult{Status: models.MutationQueued, OperationID: queued.ID}, nil
}

// CancelMutation removes a still-pending operation before it is drained.
// There is no cancellation of an in-flight network call.
func (s *DataService) CancelMutation(ctx context.Context, operationID int64) error {
	return s.queue.Remove(ctx, operationID)
}

// GetCached loads a cached value into target; expired records count as
// absent.
func (s *DataService) GetCached(ctx context.Context, collection, key string, target any) error {
	return s.cache.Get(ctx, collection, key, target)
}

// PutCached stores fetched read data with an optional TTL.
func (s *DataService) PutCached(ctx context.Context, collection, key string, value any, ttl time.Duration) error {
	return s.cache.Put(ctx, collection, key, value, ttl)
}

// GetPendingCount returns the number of queued mutations, for UI badges.
func (s *DataService) GetPendingCount(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// PendingOperations lists every queued mutation in FIFO order, for
// diagnostics.
func (s *DataService) PendingOperations(ctx context.Context) ([]models.PendingOperation, error) {
	return s.queue.List(ctx)
}

// GetCacheStats returns per-collection live record counts together with the
// advisory storage usage snapshot.
func (s *DataService) GetCacheStats(ctx context.Context) (models.CacheStats, error) {
	stats := models.CacheStats{Collections: make(map[string]int)}

	for _, collection := range s.cache.Collections() {
		count, err := s.cache.Count(ctx, collection)
		if err != nil {
			return models.CacheStats{}, err
		}
		stats.Collections[collection] = count
	}

	snapshot, err := s.quota.Snapshot(ctx)
	if err != nil {
		return models.CacheStats{}, err
	}
	stats.Quota = snapshot
	stats.UsagePercent = quota.Percentage(snapshot)

	return stats, nil
}

func validateMutation(endpoint, method, entityType string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: empty endpoint", ErrInvalidMutation)
	}
	if entityType == "" {
		return fmt.Errorf("%w: empty entity type", ErrInvalidMutation)
	}
	switch method {
	case models.MethodPost, models.MethodPut, models.MethodPatch, models.MethodDelete:
		return nil
	default:
		return fmt.Errorf("%w: method %q", ErrInvalidMutation, method)
	}
}

// normalizeMethod applies the same PATCH→PUT normalization as the queue so
// the backend sees one method regardless of the delivery path.
func normalizeMethod(method string) string {
	if method == models.MethodPatch {
		return models.MethodPut
	}
	return method
}
