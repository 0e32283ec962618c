package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mkarpushin/go-journal-keeper/models"
)

// memoryEngine is a map-backed [Engine] used for the ":memory:" DSN and in
// tests. Values are copied on the way in and out so callers cannot alias the
// engine's internal state.
type memoryEngine struct {
	quotaBytes int64

	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemoryEngine returns an in-memory engine. Contents do not survive a
// process restart; durability guarantees of the data layer only hold with the
// SQLite engine.
func NewMemoryEngine(quotaBytes int64) Engine {
	return &memoryEngine{
		quotaBytes:  quotaBytes,
		collections: make(map[string]map[string][]byte),
	}
}

func (e *memoryEngine) Get(_ context.Context, collection, key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	value, ok := e.collections[collection][key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (e *memoryEngine) Put(_ context.Context, collection, key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	records, ok := e.collections[collection]
	if !ok {
		records = make(map[string][]byte)
		e.collections[collection] = records
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	records[key] = stored
	return nil
}

func (e *memoryEngine) Delete(_ context.Context, collection, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.collections[collection], key)
	return nil
}

func (e *memoryEngine) DeleteAll(_ context.Context, collection string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.collections, collection)
	return nil
}

func (e *memoryEngine) List(_ context.Context, collection string) ([]Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	records := e.collections[collection]
	entries := make([]Entry, 0, len(records))
	for key, value := range records {
		out := make([]byte, len(value))
		copy(out, value)
		entries = append(entries, Entry{Key: key, Value: out})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries, nil
}

func (e *memoryEngine) Count(_ context.Context, collection string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.collections[collection]), nil
}

func (e *memoryEngine) EstimateUsage(_ context.Context) (models.QuotaSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var used int64
	for _, records := range e.collections {
		for key, value := range records {
			used += int64(len(key) + len(value))
		}
	}

	return models.QuotaSnapshot{UsedBytes: used, QuotaBytes: e.quotaBytes}, nil
}

func (e *memoryEngine) Close() error {
	return nil
}
