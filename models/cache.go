// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package models

import "time"

// CacheRecord is a single cached value with optional expiry. Records are
// created or overwritten on fetch and on write-through; a record whose
// ExpiresAt lies in the past is treated as absent by every read even before
// a sweep removes it.
type CacheRecord struct {
	Collection string     `json:"collection"`
	Key        string     `json:"key"`
	Value      []byte     `json:"value"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// QuotaSnapshot is a point-in-time, best-effort estimate of local storage
// usage. It is recomputed on demand and never persisted; it is advisory
// telemetry only and must not gate writes.
type QuotaSnapshot struct {
	UsedBytes  int64 `json:"used_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}

// CacheStats aggregates per-collection record counts and the current quota
// estimate for display purposes. Counts exclude expired-but-unswept records.
type CacheStats struct {
	Collections  map[string]int `json:"collections"`
	Quota        QuotaSnapshot  `json:"quota"`
	UsagePercent float64        `json:"usage_percent"`
}
