// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package config

import "errors"

// Validation errors returned by [StructuredConfig.validate]. Callers should
// use [errors.Is] to match against these values.
var (
	ErrNoBaseURL         = errors.New("adapter base URL is not set")
	ErrBadRequestTimeout = errors.New("adapter request timeout must be positive")
	ErrNoStorageDSN      = errors.New("storage DSN is not set")
	ErrNegativeQuota     = errors.New("storage quota must not be negative")
	ErrBadMaxAttempts    = errors.New("sync max attempts must be positive")
	ErrBadBackoffBounds  = errors.New("sync backoff bounds are inconsistent")
	ErrBadMaxFailures    = errors.New("vault max failures must be positive")
	ErrBadVaultDurations = errors.New("vault lockout window and session TTL must be positive")
)
