// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package models

import "time"

// UnlockFailureRecord tracks consecutive failed PIN attempts for one user.
// It is created on the first failure, incremented on each subsequent one and
// removed entirely on a successful unlock or a successful PIN change.
type UnlockFailureRecord struct {
	UserID        int64     `json:"user_id"`
	Count         int       `json:"count"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}

// VaultSession is issued after a successful unlock and gates vault-scoped
// reads and writes until it expires or the vault is explicitly locked.
// Issuing a new session logically supersedes the previous one; stale rows
// may linger until expiry, so callers must not rely on single-session
// enforcement.
type VaultSession struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the session is still valid at the given instant.
func (s VaultSession) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
