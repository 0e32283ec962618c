// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package config

import "errors"

// validate checks invariants that the merged configuration must satisfy.
// All violations are reported together via errors.Join.
func (c *StructuredConfig) validate() error {
	var errs []error

	if c.Adapter.BaseURL == "" {
		errs = append(errs, ErrNoBaseURL)
	}
	if c.Adapter.RequestTimeout <= 0 {
		errs = append(errs, ErrBadRequestTimeout)
	}
	if c.Storage.DSN == "" {
		errs = append(errs, ErrNoStorageDSN)
	}
	if c.Storage.QuotaBytes < 0 {
		errs = append(errs, ErrNegativeQuota)
	}
	if c.Sync.MaxAttempts <= 0 {
		errs = append(errs, ErrBadMaxAttempts)
	}
	if c.Sync.BaseDelay <= 0 || c.Sync.MaxDelay < c.Sync.BaseDelay {
		errs = append(errs, ErrBadBackoffBounds)
	}
	if c.Vault.MaxFailures <= 0 {
		errs = append(errs, ErrBadMaxFailures)
	}
	if c.Vault.LockoutWindow <= 0 || c.Vault.SessionTTL <= 0 {
		errs = append(errs, ErrBadVaultDurations)
	}

	return errors.Join(errs...)
}
