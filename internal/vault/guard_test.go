package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/mock"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
)

const testUserID int64 = 42

func testVaultConfig() config.Vault {
	return config.Vault{
		MaxFailures:   5,
		LockoutWindow: 15 * time.Minute,
		SessionTTL:    30 * time.Minute,
		HashCost:      bcrypt.MinCost,
	}
}

// newTestGuard returns a guard with a controllable clock and a fast bcrypt
// cost so repeated unlock attempts stay cheap.
func newTestGuard(t *testing.T) (*Guard, *time.Time) {
	t.Helper()

	current := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	g := NewGuard(store.NewMemoryEngine(0), NewBcryptHasher(bcrypt.MinCost), testVaultConfig(), logger.Nop())
	g.now = func() time.Time { return current }
	return g, &current
}

func TestValidatePin(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "minimum length", pin: "1234", wantErr: false},
		{name: "maximum length", pin: "12345678", wantErr: false},
		{name: "almost identical digits", pin: "1112", wantErr: false},
		{name: "too short", pin: "123", wantErr: true},
		{name: "too long", pin: "123456789", wantErr: true},
		{name: "empty", pin: "", wantErr: true},
		{name: "non digit", pin: "12a4", wantErr: true},
		{name: "repeated zero", pin: "0000", wantErr: true},
		{name: "repeated nine", pin: "99999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePin(tt.pin)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPinFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGuard_SetPinRejectsInvalidFormat(t *testing.T) {
	g, _ := newTestGuard(t)

	err := g.SetPin(context.Background(), testUserID, "1111")
	assert.ErrorIs(t, err, ErrInvalidPinFormat)
}

func TestGuard_UnlockWithoutPin(t *testing.T) {
	g, _ := newTestGuard(t)

	_, err := g.Unlock(context.Background(), testUserID, "1234")
	assert.ErrorIs(t, err, ErrPinNotSet)
}

func TestGuard_UnlockIssuesSession(t *testing.T) {
	g, clock := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))

	session, err := g.Unlock(ctx, testUserID, "1234")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, testUserID, session.UserID)
	assert.Equal(t, clock.Add(30*time.Minute), session.ExpiresAt)

	assert.NoError(t, g.RequireUnlocked(ctx, testUserID))
}

func TestGuard_WrongPinCountsTowardsLockout(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))

	// Four mismatches stay below the threshold.
	for i := 0; i < 4; i++ {
		_, err := g.Unlock(ctx, testUserID, "4321")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The fifth mismatch crosses it.
	_, err := g.Unlock(ctx, testUserID, "4321")
	assert.ErrorIs(t, err, ErrLocked)

	// During the lockout even the correct PIN is rejected unchecked.
	_, err = g.Unlock(ctx, testUserID, "1234")
	assert.ErrorIs(t, err, ErrLocked)
}

func TestGuard_LockoutExpiresWithWindow(t *testing.T) {
	g, clock := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	for i := 0; i < 5; i++ {
		_, err := g.Unlock(ctx, testUserID, "4321")
		require.Error(t, err)
	}

	*clock = clock.Add(15*time.Minute - time.Second)
	_, err := g.Unlock(ctx, testUserID, "1234")
	assert.ErrorIs(t, err, ErrLocked, "the window has not elapsed yet")

	*clock = clock.Add(time.Second)
	session, err := g.Unlock(ctx, testUserID, "1234")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
}

func TestGuard_SuccessfulUnlockResetsFailures(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	for i := 0; i < 4; i++ {
		_, err := g.Unlock(ctx, testUserID, "4321")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := g.Unlock(ctx, testUserID, "1234")
	require.NoError(t, err)

	// The counter starts over: four more mismatches still do not lock.
	for i := 0; i < 4; i++ {
		_, err = g.Unlock(ctx, testUserID, "4321")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestGuard_SetPinResetsFailures(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	for i := 0; i < 4; i++ {
		_, err := g.Unlock(ctx, testUserID, "4321")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	require.NoError(t, g.SetPin(ctx, testUserID, "5678"))

	_, err := g.Unlock(ctx, testUserID, "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "a fresh failure record starts at one")
}

func TestGuard_LockoutRemaining(t *testing.T) {
	g, clock := newTestGuard(t)
	ctx := context.Background()

	remaining, err := g.LockoutRemaining(ctx, testUserID)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	for i := 0; i < 5; i++ {
		_, err = g.Unlock(ctx, testUserID, "4321")
		require.Error(t, err)
	}

	*clock = clock.Add(5 * time.Minute)

	remaining, err = g.LockoutRemaining(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, remaining)
}

func TestGuard_SessionExpiry(t *testing.T) {
	g, clock := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	_, err := g.Unlock(ctx, testUserID, "1234")
	require.NoError(t, err)

	*clock = clock.Add(30*time.Minute - time.Second)
	assert.NoError(t, g.RequireUnlocked(ctx, testUserID))

	*clock = clock.Add(time.Second)
	assert.ErrorIs(t, g.RequireUnlocked(ctx, testUserID), ErrLocked)
}

func TestGuard_Lock(t *testing.T) {
	g, _ := newTestGuard(t)
	ctx := context.Background()

	require.NoError(t, g.SetPin(ctx, testUserID, "1234"))
	_, err := g.Unlock(ctx, testUserID, "1234")
	require.NoError(t, err)

	require.NoError(t, g.Lock(ctx, testUserID))
	assert.ErrorIs(t, g.RequireUnlocked(ctx, testUserID), ErrLocked)
}

func TestGuard_RequireUnlockedWithoutSession(t *testing.T) {
	g, _ := newTestGuard(t)

	assert.ErrorIs(t, g.RequireUnlocked(context.Background(), testUserID), ErrLocked)
}

func TestGuard_SetPinHashError(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := mock.NewMockPasswordHasher(ctrl)
	hasher.EXPECT().Hash("1234").Return("", errors.New("cost out of range"))

	g := NewGuard(store.NewMemoryEngine(0), hasher, testVaultConfig(), logger.Nop())

	err := g.SetPin(context.Background(), testUserID, "1234")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPinFormat)
}
