package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout = 60 * time.Second
	ServerReadTimeout    = 15 * time.Second
	// Above the request timeout so slow handlers hit the 504 path first.
	ServerWriteTimeout    = 90 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Credit ledger bounds
const (
	// Demo grants accept amounts in [DemoCreditsMin, DemoCreditsMax].
	DemoCreditsMin = 1
	DemoCreditsMax = 1000

	// Admin manual adjustments use a wider per-call cap.
	AdjustmentCreditsMax = 100000
)
