// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-journal-keeper client. It is populated by merging values from defaults,
// environment variables and command-line flags.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Adapter holds network settings for the backend HTTP transport.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds local storage engine settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds retry and drain settings for the sync engine.
	Sync Sync `envPrefix:"SYNC_"`

	// Cache holds cache sweep and collection settings.
	Cache Cache `envPrefix:"CACHE_"`

	// Vault holds PIN and lockout policy settings.
	Vault Vault `envPrefix:"VAULT_"`
}

// Adapter holds configuration for the outbound HTTP transport.
type Adapter struct {
	// BaseURL is the backend base URL, e.g. "https://api.example.com".
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds every network attempt. An expired timeout is
	// classified as a retryable failure.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds the local storage engine settings.
type Storage struct {
	// DSN is the SQLite database file path. ":memory:" selects an
	// in-memory engine that does not survive restarts.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`

	// QuotaBytes is the advisory storage quota reported by usage snapshots.
	// Zero means "unknown"; usage percentage is then reported as zero.
	// Env: STORAGE_QUOTA_BYTES
	QuotaBytes int64 `env:"QUOTA_BYTES"`
}

// Sync holds retry and drain policy for the sync engine.
type Sync struct {
	// BaseDelay is the first retry delay; subsequent delays double.
	// Env: SYNC_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// MaxDelay caps the exponential backoff.
	// Env: SYNC_MAX_DELAY
	MaxDelay time.Duration `env:"MAX_DELAY"`

	// MaxAttempts is the total delivery attempts per operation before it is
	// treated as a terminal failure and removed from the queue.
	// Env: SYNC_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// DrainInterval is how often the periodic drain ticks in addition to
	// the offline→online trigger.
	// Env: SYNC_DRAIN_INTERVAL
	DrainInterval time.Duration `env:"DRAIN_INTERVAL"`
}

// Cache holds cache maintenance settings.
type Cache struct {
	// SweepInterval is how often expired records are swept from all
	// registered collections.
	// Env: CACHE_SWEEP_INTERVAL
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`

	// CriticalCollections lists collections that Clear refuses to touch
	// without an explicit force flag (e.g. primary conversation history).
	// Env: CACHE_CRITICAL_COLLECTIONS (comma-separated)
	CriticalCollections []string `env:"CRITICAL_COLLECTIONS"`
}

// Vault holds the PIN policy and lockout settings.
type Vault struct {
	// MaxFailures is the consecutive-failure threshold that triggers the
	// lockout window.
	// Env: VAULT_MAX_FAILURES
	MaxFailures int `env:"MAX_FAILURES"`

	// LockoutWindow is how long unlock attempts are rejected outright once
	// the failure threshold has been reached.
	// Env: VAULT_LOCKOUT_WINDOW
	LockoutWindow time.Duration `env:"LOCKOUT_WINDOW"`

	// SessionTTL is the lifetime of a vault session issued on a successful
	// unlock.
	// Env: VAULT_SESSION_TTL
	SessionTTL time.Duration `env:"SESSION_TTL"`

	// HashCost is the bcrypt work factor used when hashing PINs.
	// Env: VAULT_HASH_COST
	HashCost int `env:"HASH_COST"`
}

// defaults returns the built-in configuration, merged underneath environment
// variables and flags by the config builder.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 15 * time.Second,
		},
		Storage: Storage{
			DSN:        "journal-keeper.db",
			QuotaBytes: 256 << 20, // 256 MiB
		},
		Sync: Sync{
			BaseDelay:     500 * time.Millisecond,
			MaxDelay:      30 * time.Second,
			MaxAttempts:   8,
			DrainInterval: 5 * time.Minute,
		},
		Cache: Cache{
			SweepInterval:       10 * time.Minute,
			CriticalCollections: []string{"conversations"},
		},
		Vault: Vault{
			MaxFailures:   5,
			LockoutWindow: 15 * time.Minute,
			SessionTTL:    30 * time.Minute,
			HashCost:      10,
		},
	}
}
