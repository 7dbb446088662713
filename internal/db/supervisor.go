package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnavailable is returned once the retry budget for reaching the
// database is exhausted. Callers should treat it as 503-equivalent.
var ErrUnavailable = errors.New("database unavailable")

// Dialer opens and verifies a connection pool.
type Dialer func(ctx context.Context) (*pgxpool.Pool, error)

// SleepFunc pauses between retries. Injectable so tests do not wait out
// real backoff delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PostgresDialer returns a Dialer that builds a pgx pool from databaseURL
// and pings it within connectTimeout. The generous timeout covers a
// suspended serverless instance resuming.
func PostgresDialer(databaseURL string, connectTimeout time.Duration) Dialer {
	return func(ctx context.Context) (*pgxpool.Pool, error) {
		cfg, err := pgxpool.ParseConfig(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse database URL: %w", err)
		}
		cfg.MaxConns = 10
		cfg.MinConns = 2
		cfg.ConnConfig.ConnectTimeout = connectTimeout

		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create connection pool: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return pool, nil
	}
}

// Supervisor owns the single shared pool handle for one database target.
// Concurrent callers never race to open redundant pools: the first caller
// in dials while the rest wait on a condition variable and reuse the
// result. Reconnects are retried with bounded exponential backoff.
type Supervisor struct {
	dial   Dialer
	policy Policy
	sleep  SleepFunc
	logger *slog.Logger

	// OnReconnect, if set, is invoked after each successful dial that
	// replaced a missing or invalidated handle.
	OnReconnect func()

	mu         sync.Mutex
	cond       *sync.Cond
	pool       *pgxpool.Pool
	connecting bool
	closed     bool
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSleep overrides the backoff sleep function.
func WithSleep(sleep SleepFunc) SupervisorOption {
	return func(s *Supervisor) { s.sleep = sleep }
}

// NewSupervisor creates a Supervisor. No connection is opened until the
// first Acquire.
func NewSupervisor(dial Dialer, policy Policy, logger *slog.Logger, opts ...SupervisorOption) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		dial:   dial,
		policy: policy.normalize(),
		sleep:  sleepContext,
		logger: logger,
	}
	s.cond = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire returns the shared pool, dialing it first if necessary.
// If another caller is already dialing, Acquire waits for that attempt
// and reuses its outcome instead of opening a second pool.
func (s *Supervisor) Acquire(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			return nil, errors.New("supervisor is closed")
		}
		if s.pool != nil {
			pool := s.pool
			s.mu.Unlock()
			return pool, nil
		}
		if !s.connecting {
			break
		}
		s.cond.Wait()
	}
	s.connecting = true
	s.mu.Unlock()

	pool, err := s.dialWithRetry(ctx)

	s.mu.Lock()
	s.connecting = false
	if err == nil && !s.closed {
		s.pool = pool
	}
	s.cond.Broadcast()
	closed := s.closed
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if closed {
		pool.Close()
		return nil, errors.New("supervisor is closed")
	}
	if s.OnReconnect != nil {
		s.OnReconnect()
	}
	return pool, nil
}

func (s *Supervisor) dialWithRetry(ctx context.Context) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		pool, err := s.dial(ctx)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if Classify(err) == ClassPermanent {
			return nil, fmt.Errorf("connect: %w", err)
		}
		if attempt == s.policy.MaxAttempts-1 {
			break
		}

		delay := s.policy.Delay(attempt)
		s.logger.Warn("database unreachable, retrying connect",
			"attempt", attempt+1,
			"max_attempts", s.policy.MaxAttempts,
			"delay", delay.String(),
			"error", err,
		)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: connect failed after %d attempts: %v", ErrUnavailable, s.policy.MaxAttempts, lastErr)
}

// Invalidate discards a handle that failed mid-operation so the next
// Acquire reconnects. Only the exact stale handle is dropped; a pool that
// has already been replaced is left alone.
func (s *Supervisor) Invalidate(stale *pgxpool.Pool) {
	if stale == nil {
		return
	}
	s.mu.Lock()
	if s.pool != stale {
		s.mu.Unlock()
		return
	}
	s.pool = nil
	s.mu.Unlock()

	s.logger.Info("invalidated database pool handle")
	// Close asynchronously: Close blocks until in-flight queries on other
	// goroutines release their connections.
	go stale.Close()
}

// Ping verifies connectivity through the shared handle, dialing if needed.
func (s *Supervisor) Ping(ctx context.Context) error {
	pool, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close shuts the supervisor down and closes the current handle.
func (s *Supervisor) Close() {
	s.mu.Lock()
	s.closed = true
	pool := s.pool
	s.pool = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}
