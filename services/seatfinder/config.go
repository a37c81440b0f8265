package seatfinder

import (
	"os"
	"strconv"
	"time"
)

// Config carries the deployment tunables. Values, not behavior: the task
// set and matching rules are fixed.
type Config struct {
	// bounded worker pool size for the venue×session fan-out
	Workers int
	// per-task connect and read timeouts, so one unresponsive venue
	// cannot stall the others
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// overall wall-clock bound for one search batch; tasks past the
	// deadline are treated like failed ones
	BatchTimeout time.Duration
	// sliding expiration window for search sessions
	SessionTTL time.Duration
	// human-readable tier name surfaced in the health endpoint
	Description string
}

func serverlessTier() Config {
	return Config{
		Workers:        8,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		BatchTimeout:   60 * time.Second,
		SessionTTL:     300 * time.Second,
		Description:    "Serverless Parallel Optimized",
	}
}

func developmentTier() Config {
	return Config{
		Workers:        6,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
		BatchTimeout:   60 * time.Second,
		SessionTTL:     300 * time.Second,
		Description:    "Development Parallel Mode",
	}
}

// ConfigFromEnv picks the tier from SERVERLESS/VERCEL and applies the
// SEATFINDER_* and SESSION_TIMEOUT overrides.
func ConfigFromEnv() Config {
	cfg := developmentTier()
	if os.Getenv("SERVERLESS") == "1" || os.Getenv("VERCEL") == "1" {
		cfg = serverlessTier()
	}

	if n, ok := envInt("SEATFINDER_WORKERS"); ok && n > 0 {
		cfg.Workers = n
	}
	if d, ok := envSeconds("SEATFINDER_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = d
	}
	if d, ok := envSeconds("SEATFINDER_READ_TIMEOUT"); ok {
		cfg.ReadTimeout = d
	}
	if d, ok := envSeconds("SEATFINDER_BATCH_TIMEOUT"); ok {
		cfg.BatchTimeout = d
	}
	if d, ok := envSeconds("SESSION_TIMEOUT"); ok {
		cfg.SessionTTL = d
	}
	return cfg
}

func envInt(key string) (int, bool) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envSeconds(key string) (time.Duration, bool) {
	n, ok := envInt(key)
	if !ok || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
