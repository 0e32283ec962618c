// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mikhail Karpushin

package config

import (
	"flag"
	"strings"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-server-url backend base URL
//	-d local database file path
//	-quota advisory storage quota in bytes
//	-request-timeout network attempt timeout (e.g., "15s")
//	-drain-interval periodic drain tick (e.g., "5m")
//	-sweep-interval cache sweep tick (e.g., "10m")
//	-critical-collections comma-separated non-evictable cache collections
func ParseFlags() *StructuredConfig {
	var serverURL string
	var databaseDSN string
	var quotaBytes int64
	var requestTimeout time.Duration
	var drainInterval time.Duration
	var sweepInterval time.Duration
	var criticalCollections string

	flag.StringVar(&serverURL, "server-url", "", "Backend base URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database file path")
	flag.Int64Var(&quotaBytes, "quota", 0, "Advisory storage quota in bytes")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	flag.DurationVar(&drainInterval, "drain-interval", 0, "Periodic drain interval (e.g., 5m)")
	flag.DurationVar(&sweepInterval, "sweep-interval", 0, "Cache sweep interval (e.g., 10m)")
	flag.StringVar(&criticalCollections, "critical-collections", "", "Comma-separated critical cache collections")

	flag.Parse()

	cfg := &StructuredConfig{
		Adapter: Adapter{
			BaseURL:        serverURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DSN:        databaseDSN,
			QuotaBytes: quotaBytes,
		},
		Sync: Sync{
			DrainInterval: drainInterval,
		},
		Cache: Cache{
			SweepInterval: sweepInterval,
		},
	}

	if criticalCollections != "" {
		cfg.Cache.CriticalCollections = strings.Split(criticalCollections, ",")
	}

	return cfg
}
