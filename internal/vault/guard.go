// Package vault implements the PIN gate in front of the client's sensitive
// data: PIN set/verify with a slow hash, failure counting with a wall-clock
// lockout window, and session issuance for vault-scoped operations.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/internal/store"
	"github.com/mkarpushin/go-journal-keeper/models"
)

// Storage-engine collections for the vault's persistent records.
const (
	pinCollection     = "vault/pins"
	failureCollection = "vault/failures"
	sessionCollection = "vault/sessions"
)

// Guard is the vault authentication state machine. Per user it moves through
// unset → set (locked) ⇄ unlocked, with the lockout window overlaying the
// locked state after repeated failures.
//
// Lockout triggers purely on failure count and elapsed wall-clock time,
// independent of which PIN was tried last; during an active lockout the PIN
// is not checked at all, so an attacker cannot use timing to confirm a
// guess.
type Guard struct {
	records store.Engine
	hasher  PasswordHasher
	logger  *logger.Logger
	cfg     config.Vault
	now     func() time.Time

	// mu serialises failure-record read-modify-write cycles. Hash
	// verification happens outside the critical section.
	mu sync.Mutex
}

// NewGuard creates a vault guard persisting its records in the given engine.
func NewGuard(records store.Engine, hasher PasswordHasher, cfg config.Vault, log *logger.Logger) *Guard {
	return &Guard{
		records: records,
		hasher:  hasher,
		logger:  log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetPin validates and stores a new PIN for the user, replacing any previous
// one, and resets the failure record. Returns ErrInvalidPinFormat if the PIN
// is not 4-8 digits or consists of one repeated digit ("0000", "1111", ...).
func (g *Guard) SetPin(ctx context.Context, userID int64, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}

	digest, err := g.hasher.Hash(pin)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}

	if err = g.records.Put(ctx, pinCollection, userKey(userID), []byte(digest)); err != nil {
		return fmt.Errorf("persist pin hash: %w", err)
	}
	if err = g.records.Delete(ctx, failureCollection, userKey(userID)); err != nil {
		return fmt.Errorf("reset failure record: %w", err)
	}

	g.logger.Info().Int64("user_id", userID).Msg("vault pin set")
	return nil
}

// Unlock verifies the PIN and, on success, issues a fresh session with a
// fixed expiry, resetting the failure record. During an active lockout it
// fails with ErrLocked without checking the PIN. On a mismatch it increments
// the failure record and returns ErrInvalidCredentials, or ErrLocked when
// the increment crosses the failure threshold.
func (g *Guard) Unlock(ctx context.Context, userID int64, pin string) (models.VaultSession, error) {
	locked, _, err := g.lockoutActive(ctx, userID)
	if err != nil {
		return models.VaultSession{}, err
	}
	if locked {
		return models.VaultSession{}, ErrLocked
	}

	digest, err := g.records.Get(ctx, pinCollection, userKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.VaultSession{}, ErrPinNotSet
		}
		return models.VaultSession{}, fmt.Errorf("load pin hash: %w", err)
	}

	if !g.hasher.Verify(pin, string(digest)) {
		count, recordErr := g.recordFailure(ctx, userID)
		if recordErr != nil {
			return models.VaultSession{}, recordErr
		}
		if count >= g.cfg.MaxFailures {
			g.logger.Warn().Int64("user_id", userID).Int("failures", count).Msg("vault locked out")
			return models.VaultSession{}, ErrLocked
		}
		return models.VaultSession{}, ErrInvalidCredentials
	}

	if err = g.records.Delete(ctx, failureCollection, userKey(userID)); err != nil {
		return models.VaultSession{}, fmt.Errorf("reset failure record: %w", err)
	}

	session := models.VaultSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: g.now().Add(g.cfg.SessionTTL),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return models.VaultSession{}, fmt.Errorf("encode vault session: %w", err)
	}
	if err = g.records.Put(ctx, sessionCollection, userKey(userID), payload); err != nil {
		return models.VaultSession{}, fmt.Errorf("persist vault session: %w", err)
	}

	g.logger.Debug().Int64("user_id", userID).Str("session_id", session.ID).Msg("vault unlocked")
	return session, nil
}

// RequireUnlocked gates vault-scoped reads and writes: it fails with
// ErrLocked unless the user holds an unexpired session. Expired session rows
// are dropped on the way.
func (g *Guard) RequireUnlocked(ctx context.Context, userID int64) error {
	raw, err := g.records.Get(ctx, sessionCollection, userKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrLocked
		}
		return fmt.Errorf("load vault session: %w", err)
	}

	var session models.VaultSession
	if err = json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("decode vault session: %w", err)
	}

	if !session.Active(g.now()) {
		if delErr := g.records.Delete(ctx, sessionCollection, userKey(userID)); delErr != nil {
			g.logger.Warn().Err(delErr).Int64("user_id", userID).Msg("failed to drop expired vault session")
		}
		return ErrLocked
	}

	return nil
}

// Lock destroys the user's session immediately; subsequent vault-scoped
// operations fail with ErrLocked until the next successful Unlock.
func (g *Guard) Lock(ctx context.Context, userID int64) error {
	if err := g.records.Delete(ctx, sessionCollection, userKey(userID)); err != nil {
		return fmt.Errorf("remove vault session: %w", err)
	}
	return nil
}

// LockoutRemaining returns how long the active lockout window still lasts,
// or zero when the user is not locked out. Intended for the UI countdown.
func (g *Guard) LockoutRemaining(ctx context.Context, userID int64) (time.Duration, error) {
	locked, remaining, err := g.lockoutActive(ctx, userID)
	if err != nil || !locked {
		return 0, err
	}
	return remaining, nil
}

// lockoutActive loads the failure record and evaluates the lockout overlay.
func (g *Guard) lockoutActive(ctx context.Context, userID int64) (bool, time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	record, err := g.loadFailureRecord(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if record == nil || record.Count < g.cfg.MaxFailures {
		return false, 0, nil
	}

	elapsed := g.now().Sub(record.LastAttemptAt)
	if elapsed >= g.cfg.LockoutWindow {
		return false, 0, nil
	}
	return true, g.cfg.LockoutWindow - elapsed, nil
}

// recordFailure increments the failure record atomically and returns the new
// count.
func (g *Guard) recordFailure(ctx context.Context, userID int64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	record, err := g.loadFailureRecord(ctx, userID)
	if err != nil {
		return 0, err
	}
	if record == nil {
		record = &models.UnlockFailureRecord{UserID: userID}
	}

	record.Count++
	record.LastAttemptAt = g.now()

	payload, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("encode failure record: %w", err)
	}
	if err = g.records.Put(ctx, failureCollection, userKey(userID), payload); err != nil {
		return 0, fmt.Errorf("persist failure record: %w", err)
	}

	return record.Count, nil
}

// loadFailureRecord returns nil without error when no record exists.
func (g *Guard) loadFailureRecord(ctx context.Context, userID int64) (*models.UnlockFailureRecord, error) {
	raw, err := g.records.Get(ctx, failureCollection, userKey(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load failure record: %w", err)
	}

	var record models.UnlockFailureRecord
	if err = json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode failure record: %w", err)
	}
	return &record, nil
}

// validatePin enforces the minimum-entropy floor: 4-8 digits, not a single
// repeated digit. This is not full PIN-strength enforcement.
func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return ErrInvalidPinFormat
	}

	identical := true
	for i, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPinFormat
		}
		if i > 0 && byte(r) != pin[0] {
			identical = false
		}
	}
	if identical {
		return ErrInvalidPinFormat
	}

	return nil
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
