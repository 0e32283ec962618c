// Package cache implements keyed read-data storage with per-record TTL.
// Expiry is enforced twice: lazily on every read, and in batch by sweeps.
// Displayed counts exclude records that are expired but not yet swept.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
)

// ErrCriticalCollection is returned when Clear targets a collection marked
// critical without the explicit force flag.
var ErrCriticalCollection = errors.New("collection is critical, clearing requires force")

// collectionPrefix namespaces cache collections inside the shared storage
// engine, away from the operation queue and the vault records.
const collectionPrefix = "cache/"

// registryCollection persists the set of known cache collections, keyed by
// collection name. Without it, collections written by a previous run would be
// invisible to ClearAll, sweeps and stats until their next write.
const registryCollection = "cache_registry"

// registryRecord is the persisted form of one registry entry.
type registryRecord struct {
	Critical bool `json:"critical"`
}

// envelope is the persisted form of one cache record.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Store is the cache over the shared storage engine. Collections are
// registered explicitly (critical ones at construction) or implicitly on
// first write; the registry drives ClearAll, sweeps and stats, replacing any
// ambient global state. Registrations are persisted in the engine, so the
// registry survives restarts together with the records it describes.
type Store struct {
	engine store.Engine
	logger *logger.Logger
	now    func() time.Time

	mu         sync.RWMutex
	registered map[string]bool // collection -> critical
}

// NewStore creates a cache store, restoring the collection registry persisted
// by previous runs. Collections named in critical refuse Clear without the
// force flag (e.g. primary conversation history).
func NewStore(ctx context.Context, engine store.Engine, critical []string, log *logger.Logger) (*Store, error) {
	entries, err := engine.List(ctx, registryCollection)
	if err != nil {
		return nil, fmt.Errorf("restore cache registry: %w", err)
	}

	registered := make(map[string]bool, len(entries)+len(critical))
	for _, entry := range entries {
		var record registryRecord
		if err = json.Unmarshal(entry.Value, &record); err != nil {
			return nil, fmt.Errorf("decode cache registry entry %s: %w", entry.Key, err)
		}
		registered[entry.Key] = record.Critical
	}

	s := &Store{
		engine:     engine,
		logger:     log,
		now:        time.Now,
		registered: registered,
	}

	// Configured criticals override whatever flag an earlier run persisted.
	for _, name := range critical {
		if err = s.RegisterCollection(ctx, name, true); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// RegisterCollection adds a collection to the registry without writing any
// record. Registering an existing collection updates its critical flag. The
// registration is durable before RegisterCollection returns.
func (s *Store) RegisterCollection(ctx context.Context, name string, critical bool) error {
	s.mu.Lock()
	current, known := s.registered[name]
	s.registered[name] = critical
	s.mu.Unlock()

	if known && current == critical {
		return nil
	}

	payload, err := json.Marshal(registryRecord{Critical: critical})
	if err != nil {
		return fmt.Errorf("encode cache registry entry %s: %w", name, err)
	}
	if err = s.engine.Put(ctx, registryCollection, name, payload); err != nil {
		return fmt.Errorf("persist cache registry entry %s: %w", name, err)
	}
	return nil
}

// Collections returns the registered collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.registered))
	for name := range s.registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put upserts value under collection/key. A positive ttl sets the record's
// expiry to now + ttl; ttl <= 0 stores the record without expiry. A write
// failure is returned as-is: Put never reports success for a lost record.
func (s *Store) Put(ctx context.Context, collection, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s/%s: %w", collection, key, err)
	}

	record := envelope{Value: raw}
	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		record.ExpiresAt = &expiresAt
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cache record %s/%s: %w", collection, key, err)
	}

	if err = s.engine.Put(ctx, collectionPrefix+collection, key, payload); err != nil {
		return fmt.Errorf("persist cache record %s/%s: %w", collection, key, err)
	}

	s.mu.RLock()
	_, known := s.registered[collection]
	s.mu.RUnlock()
	if !known {
		return s.RegisterCollection(ctx, collection, false)
	}

	return nil
}

// Get loads the record under collection/key into target. An expired record
// is treated as absent even before a sweep removes it; Get deletes it on the
// way out, best-effort. Returns store.ErrNotFound for missing and expired
// records alike.
func (s *Store) Get(ctx context.Context, collection, key string, target any) error {
	raw, err := s.engine.Get(ctx, collectionPrefix+collection, key)
	if err != nil {
		return err
	}

	var record envelope
	if err = json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("decode cache record %s/%s: %w", collection, key, err)
	}

	if s.expired(record) {
		if delErr := s.engine.Delete(ctx, collectionPrefix+collection, key); delErr != nil {
			s.logger.Warn().Err(delErr).
				Str("collection", collection).
				Str("key", key).
				Msg("failed to drop expired cache record on read")
		}
		return store.ErrNotFound
	}

	if err = json.Unmarshal(record.Value, target); err != nil {
		return fmt.Errorf("decode cache value %s/%s: %w", collection, key, err)
	}
	return nil
}

// Count returns the number of live records in the collection. Records that
// expired but were not yet swept are excluded, so display counts never show
// data a read could no longer return.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	entries, err := s.engine.List(ctx, collectionPrefix+collection)
	if err != nil {
		return 0, fmt.Errorf("list cache records %s: %w", collection, err)
	}

	count := 0
	for _, entry := range entries {
		var record envelope
		if err = json.Unmarshal(entry.Value, &record); err != nil {
			return 0, fmt.Errorf("decode cache record %s/%s: %w", collection, entry.Key, err)
		}
		if !s.expired(record) {
			count++
		}
	}
	return count, nil
}

// Clear deletes every record in the collection. Critical collections are
// only cleared when force is set.
func (s *Store) Clear(ctx context.Context, collection string, force bool) error {
	s.mu.RLock()
	critical := s.registered[collection]
	s.mu.RUnlock()

	if critical && !force {
		return fmt.Errorf("%w: %s", ErrCriticalCollection, collection)
	}

	if err := s.engine.DeleteAll(ctx, collectionPrefix+collection); err != nil {
		return fmt.Errorf("clear cache collection %s: %w", collection, err)
	}
	return nil
}

// ClearAll clears every registered collection, skipping critical ones unless
// force is set.
func (s *Store) ClearAll(ctx context.Context, force bool) error {
	for _, collection := range s.Collections() {
		err := s.Clear(ctx, collection, force)
		if errors.Is(err, ErrCriticalCollection) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SweepExpired removes every expired record from the collection and returns
// how many were deleted. Sweeping twice with no writes in between removes
// nothing the second time.
func (s *Store) SweepExpired(ctx context.Context, collection string) (int, error) {
	entries, err := s.engine.List(ctx, collectionPrefix+collection)
	if err != nil {
		return 0, fmt.Errorf("list cache records %s: %w", collection, err)
	}

	removed := 0
	for _, entry := range entries {
		var record envelope
		if err = json.Unmarshal(entry.Value, &record); err != nil {
			return removed, fmt.Errorf("decode cache record %s/%s: %w", collection, entry.Key, err)
		}
		if !s.expired(record) {
			continue
		}
		if err = s.engine.Delete(ctx, collectionPrefix+collection, entry.Key); err != nil {
			return removed, fmt.Errorf("sweep cache record %s/%s: %w", collection, entry.Key, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug().Str("collection", collection).Int("removed", removed).Msg("swept expired cache records")
	}
	return removed, nil
}

// SweepAll sweeps every registered collection and returns the total number
// of removed records.
func (s *Store) SweepAll(ctx context.Context) (int, error) {
	total := 0
	for _, collection := range s.Collections() {
		removed, err := s.SweepExpired(ctx, collection)
		total += removed
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// expired reports whether the record's expiry has passed. A record expiring
// exactly now is already expired.
func (s *Store) expired(record envelope) bool {
	return record.ExpiresAt != nil && !s.now().Before(*record.ExpiresAt)
}
