package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkarpushin/go-journal-keeper/internal/adapter"
	"github.com/mkarpushin/go-journal-keeper/internal/cache"
	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/connectivity"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/mock"
	"github.com/mkarpushin/go-journal-keeper/internal/queue"
	"github.com/mkarpushin/go-journal-keeper/internal/quota"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
	"github.com/mkarpushin/go-journal-keeper/internal/syncer"
	"github.com/mkarpushin/go-journal-keeper/models"
)

type journalEntry struct {
	Text string `json:"text"`
}

type serviceFixture struct {
	service *DataService
	syncer  *syncer.Engine
	backend *mock.MockBackend
	monitor *connectivity.Monitor
	cache   *cache.Store
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	backend := mock.NewMockBackend(ctrl)
	monitor := connectivity.NewMonitor(true, logger.Nop())
	engine := store.NewMemoryEngine(1 << 20)

	q, err := queue.New(context.Background(), engine, logger.Nop())
	require.NoError(t, err)

	cacheStore, err := cache.NewStore(context.Background(), engine, []string{"conversations"}, logger.Nop())
	require.NoError(t, err)

	syncCfg := config.Sync{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3}

	return &serviceFixture{
		service: NewDataService(q, cacheStore, quota.NewTracker(engine), backend, monitor, logger.Nop()),
		syncer:  syncer.NewEngine(q, backend, monitor, syncCfg, logger.Nop()),
		backend: backend,
		monitor: monitor,
		cache:   cacheStore,
	}
}

func TestDataService_SubmitMutationValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		endpoint   string
		method     string
		entityType string
	}{
		{name: "empty endpoint", endpoint: "", method: models.MethodPost, entityType: "journal"},
		{name: "empty entity type", endpoint: "/api/journal", method: models.MethodPost, entityType: ""},
		{name: "bad method", endpoint: "/api/journal", method: "TRACE", entityType: "journal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SubmitMutation(ctx, tt.endpoint, tt.method, journalEntry{Text: "x"}, tt.entityType, "")
			assert.ErrorIs(t, err, ErrInvalidMutation)
		})
	}

	count, err := f.service.GetPendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "invalid mutations must never reach the queue")
}

func TestDataService_SubmitMutationOnlineSuccess(t *testing.T) {
	f := newServiceFixture(t)

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal", []byte(`{"text":"hello"}`)).
		Return(adapter.Response{Status: 201}, nil)

	result, err := f.service.SubmitMutation(context.Background(), "/api/journal", models.MethodPost, journalEntry{Text: "hello"}, "journal", "")
	require.NoError(t, err)
	assert.Equal(t, models.MutationSucceeded, result.Status)

	count, err := f.service.GetPendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDataService_SubmitMutationNormalizesPatch(t *testing.T) {
	f := newServiceFixture(t)

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPut, "/api/journal/1", gomock.Any()).
		Return(adapter.Response{Status: 200}, nil)

	result, err := f.service.SubmitMutation(context.Background(), "/api/journal/1", models.MethodPatch, journalEntry{Text: "x"}, "journal", "j-1")
	require.NoError(t, err)
	assert.Equal(t, models.MutationSucceeded, result.Status)
}

func TestDataService_SubmitMutationRejectedNotQueued(t *testing.T) {
	f := newServiceFixture(t)

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal", gomock.Any()).
		Return(adapter.Response{Status: 422}, adapter.ErrTerminal)

	result, err := f.service.SubmitMutation(context.Background(), "/api/journal", models.MethodPost, journalEntry{Text: "x"}, "journal", "")
	assert.ErrorIs(t, err, ErrMutationRejected)
	assert.Equal(t, models.MutationFailed, result.Status)

	count, err := f.service.GetPendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected mutation is never queued")
}

func TestDataService_SubmitMutationOfflineQueues(t *testing.T) {
	f := newServiceFixture(t)
	f.monitor.SetOnline(false)

	// No Send expectation: offline submissions must not touch the network.
	result, err := f.service.SubmitMutation(context.Background(), "/api/journal", models.MethodPost, journalEntry{Text: "hello"}, "journal", "")
	require.NoError(t, err)
	assert.Equal(t, models.MutationQueued, result.Status)
	assert.NotZero(t, result.OperationID)

	count, err := f.service.GetPendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDataService_TransientFailureFallsBackToQueue(t *testing.T) {
	f := newServiceFixture(t)

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal", gomock.Any()).
		Return(adapter.Response{}, adapter.ErrTransient)

	result, err := f.service.SubmitMutation(context.Background(), "/api/journal", models.MethodPost, journalEntry{Text: "hello"}, "journal", "")
	require.NoError(t, err)
	assert.Equal(t, models.MutationQueued, result.Status)
}

// TestDataService_OfflineSubmitThenReconnectDrains walks the primary offline
// scenario end to end: submit while offline, reconnect, drain, observe the
// pending badge drop back to zero.
func TestDataService_OfflineSubmitThenReconnectDrains(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.monitor.SetOnline(false)

	result, err := f.service.SubmitMutation(ctx, "/api/journal", models.MethodPost, journalEntry{Text: "hello"}, "journal", "")
	require.NoError(t, err)
	require.Equal(t, models.MutationQueued, result.Status)

	pending, err := f.service.GetPendingCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pending)

	f.monitor.SetOnline(true)
	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal", []byte(`{"text":"hello"}`)).
		Return(adapter.Response{Status: 201}, nil)

	require.NoError(t, f.syncer.Drain(ctx))

	pending, err = f.service.GetPendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDataService_CancelMutation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.monitor.SetOnline(false)

	result, err := f.service.SubmitMutation(ctx, "/api/journal", models.MethodPost, journalEntry{Text: "hello"}, "journal", "")
	require.NoError(t, err)

	require.NoError(t, f.service.CancelMutation(ctx, result.OperationID))

	pending, err := f.service.GetPendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestDataService_CachedRoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.PutCached(ctx, "journal", "j-1", journalEntry{Text: "cached"}, time.Hour))

	var got journalEntry
	require.NoError(t, f.service.GetCached(ctx, "journal", "j-1", &got))
	assert.Equal(t, "cached", got.Text)

	err := f.service.GetCached(ctx, "journal", "missing", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDataService_PendingOperationsOrder(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	f.monitor.SetOnline(false)

	endpoints := []string{"/api/journal/1", "/api/journal/2"}
	for _, endpoint := range endpoints {
		_, err := f.service.SubmitMutation(ctx, endpoint, models.MethodPost, journalEntry{Text: "x"}, "journal", "")
		require.NoError(t, err)
	}

	ops, err := f.service.PendingOperations(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for i, op := range ops {
		assert.Equal(t, endpoints[i], op.Endpoint)
	}
}

func TestDataService_AuthTokenPassthrough(t *testing.T) {
	f := newServiceFixture(t)

	f.backend.EXPECT().SetToken("token-123")
	f.backend.EXPECT().UserID().Return(int64(42), nil)

	f.service.SetAuthToken("token-123")

	id, err := f.service.AuthenticatedUserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestDataService_GetCacheStats(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.PutCached(ctx, "journal", "j-1", journalEntry{Text: "a"}, 0))
	require.NoError(t, f.service.PutCached(ctx, "journal", "j-2", journalEntry{Text: "b"}, 0))
	require.NoError(t, f.service.PutCached(ctx, "profiles", "p-1", journalEntry{Text: "c"}, 0))

	stats, err := f.service.GetCacheStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Collections["journal"])
	assert.Equal(t, 1, stats.Collections["profiles"])
	assert.Zero(t, stats.Collections["conversations"], "registered critical collections appear even when empty")
	assert.Positive(t, stats.Quota.UsedBytes)
	assert.Equal(t, int64(1<<20), stats.Quota.QuotaBytes)
	assert.Positive(t, stats.UsagePercent)
}
