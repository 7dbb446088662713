// Package db manages the shared PostgreSQL connection pool and the retry
// machinery that keeps the application available while the backing store
// suspends and resumes itself.
package db

import (
	"math"
	"time"
)

// Policy defines bounded exponential backoff for connect and query retries.
// The same policy is shared by the connection supervisor, the retry
// executor, and the startup migrator.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy tolerates a serverless Postgres resuming from auto-pause,
// which can take tens of seconds.
var DefaultPolicy = Policy{
	MaxAttempts:  5,
	InitialDelay: 2 * time.Second,
	Multiplier:   2.0,
	MaxDelay:     30 * time.Second,
}

// Delay returns the backoff delay before the given retry.
// attempt is 0-indexed: Delay(0) is the pause after the first failure.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// normalize fills in zero fields with defaults so a partially configured
// policy never produces a zero-attempt loop.
func (p Policy) normalize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultPolicy.InitialDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = DefaultPolicy.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}
	return p
}
