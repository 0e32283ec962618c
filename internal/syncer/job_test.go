package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkarpushin/go-journal-keeper/internal/adapter"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/models"
)

func TestJob_DrainsOnReconnect(t *testing.T) {
	f := newEngineFixture(t)
	f.monitor.SetOnline(false)
	f.enqueue(t, "/api/journal/1")

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal/1", gomock.Any()).
		Return(adapter.Response{Status: 201}, nil)

	job := NewJob(f.engine, f.monitor, logger.Nop())
	job.Start(context.Background(), time.Hour)
	defer job.Stop()

	f.monitor.SetOnline(true)

	require.Eventually(t, func() bool {
		return f.pending(t) == 0
	}, 2*time.Second, 10*time.Millisecond, "the offline→online transition must trigger a drain")
}

func TestJob_DrainsOnTickWhileOnline(t *testing.T) {
	f := newEngineFixture(t)
	f.enqueue(t, "/api/journal/1")

	f.backend.EXPECT().Send(gomock.Any(), models.MethodPost, "/api/journal/1", gomock.Any()).
		Return(adapter.Response{Status: 201}, nil)

	job := NewJob(f.engine, f.monitor, logger.Nop())
	job.Start(context.Background(), 20*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		return f.pending(t) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJob_NoDrainWhileOffline(t *testing.T) {
	f := newEngineFixture(t)
	f.monitor.SetOnline(false)
	f.enqueue(t, "/api/journal/1")

	// No Send expectation: ticks while offline must not reach the backend.
	job := NewJob(f.engine, f.monitor, logger.Nop())
	job.Start(context.Background(), 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	job.Stop()

	assert.Equal(t, 1, f.pending(t))
}

func TestJob_StopIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)

	job := NewJob(f.engine, f.monitor, logger.Nop())

	// Stopping a never-started job is a no-op.
	job.Stop()

	job.Start(context.Background(), time.Hour)
	job.Stop()
	job.Stop()
}
