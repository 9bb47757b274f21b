package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RunLedgerMigrations lets a dev/test database get the ledger mirror tables created on startup.
// The production ledger schema is owned by the host platform, so this is off by default.
//
// Set via env:
// - RUN_LEDGER_MIGRATIONS=true
func RunLedgerMigrations() bool {
	return boolFromEnv("RUN_LEDGER_MIGRATIONS")
}

// ReportCacheEnabled turns on the redis report cache.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE")
}

// ReportCacheTTL is REPORT_CACHE_TTL_SECONDS (default 120s).
func ReportCacheTTL() time.Duration {
	ttl := intFromEnv("REPORT_CACHE_TTL_SECONDS", 120)
	if ttl <= 0 {
		ttl = 120
	}
	return time.Duration(ttl) * time.Second
}

// ReportSlowThreshold is REPORT_SLOW_MS (default 500ms).
func ReportSlowThreshold() time.Duration {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}
