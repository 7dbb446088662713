package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Operation is a unit of database work. Operations are retried wholesale
// after a transient failure, so they must be idempotent or safe to repeat;
// the transactional writers satisfy this by recomputing all state inside
// the transaction rather than assuming partial prior success.
type Operation func(ctx context.Context, pool *pgxpool.Pool) error

// Executor wraps operations in the shared bounded-retry loop. On a
// transient failure it invalidates the pool handle, so the next attempt
// reconnects instead of reusing a dead connection. Permanent failures
// propagate immediately.
type Executor struct {
	sup    *Supervisor
	policy Policy
	sleep  SleepFunc
	logger *slog.Logger

	// OnRetry, if set, is invoked before each retry of an operation.
	OnRetry func(name string, attempt int)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorSleep overrides the backoff sleep function.
func WithExecutorSleep(sleep SleepFunc) ExecutorOption {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor creates an Executor bound to a supervisor.
func NewExecutor(sup *Supervisor, policy Policy, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		sup:    sup,
		policy: policy.normalize(),
		sleep:  sleepContext,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs op against the shared pool, retrying the whole operation
// (reconnect included) on transient failures up to the policy's attempt
// budget. name identifies the operation in logs and metrics.
func (e *Executor) Do(ctx context.Context, name string, op Operation) error {
	var lastErr error
	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		pool, err := e.sup.Acquire(ctx)
		if err != nil {
			// Acquire already ran its own bounded retry.
			return err
		}

		start := time.Now()
		err = op(ctx, pool)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if Classify(err) == ClassPermanent {
			return err
		}

		e.sup.Invalidate(pool)
		if attempt == e.policy.MaxAttempts-1 {
			break
		}

		delay := e.policy.Delay(attempt)
		e.logger.Warn("database operation failed, retrying",
			"operation", name,
			"attempt", attempt+1,
			"max_attempts", e.policy.MaxAttempts,
			"elapsed", time.Since(start).String(),
			"delay", delay.String(),
			"error", err,
		)
		if e.OnRetry != nil {
			e.OnRetry(name, attempt+1)
		}
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrUnavailable, name, e.policy.MaxAttempts, lastErr)
}
