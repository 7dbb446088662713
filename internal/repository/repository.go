// Package repository provides the resilient database access layer.
// All reads and writes funnel through a retry executor backed by a single
// supervised connection pool, so a backing store that suspends itself and
// resumes slowly is retried instead of surfaced to callers.
package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/timetably/timetably/internal/db"
)

// Config tunes connection and retry behavior.
type Config struct {
	DatabaseURL    string
	ConnectTimeout time.Duration
	Retry          db.Policy
}

// Repository provides database access methods.
type Repository struct {
	sup  *db.Supervisor
	exec *db.Executor
}

// New creates a Repository with a supervised connection pool. The initial
// connection is established eagerly so startup fails loudly on permanent
// misconfiguration, but a store that is merely waking up is waited for.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Repository, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	sup := db.NewSupervisor(db.PostgresDialer(cfg.DatabaseURL, cfg.ConnectTimeout), cfg.Retry, logger)
	exec := db.NewExecutor(sup, cfg.Retry, logger)

	if _, err := sup.Acquire(ctx); err != nil {
		sup.Close()
		return nil, err
	}

	return &Repository{sup: sup, exec: exec}, nil
}

// NewWithSupervisor wires a Repository over an existing supervisor.
// Used by tests that inject a fake dialer or sleep function.
func NewWithSupervisor(sup *db.Supervisor, exec *db.Executor) *Repository {
	return &Repository{sup: sup, exec: exec}
}

// Ping checks database connectivity through the retry machinery.
func (r *Repository) Ping(ctx context.Context) error {
	return r.sup.Ping(ctx)
}

// Close closes the supervised connection pool.
func (r *Repository) Close() {
	r.sup.Close()
}

// Supervisor exposes the pool supervisor for instrumentation hooks.
func (r *Repository) Supervisor() *db.Supervisor {
	return r.sup
}

// Executor exposes the retry executor for instrumentation hooks.
func (r *Repository) Executor() *db.Executor {
	return r.exec
}
