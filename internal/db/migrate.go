package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // database/sql driver for goose
	"github.com/pressly/goose/v3"
)

// Migrate applies pending goose migrations from dir. Migration runs at
// startup, which is exactly when a suspended serverless store is most
// likely to still be waking up, so the attempt is wrapped in the same
// bounded backoff policy the rest of the layer uses.
func Migrate(ctx context.Context, databaseURL, dir string, policy Policy, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	policy = policy.normalize()

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		err := func() error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return goose.UpContext(ctx, sqlDB, dir)
		}()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if Classify(err) == ClassPermanent {
			return fmt.Errorf("migrate: %w", err)
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		delay := policy.Delay(attempt)
		logger.Warn("database unreachable during migration, retrying",
			"attempt", attempt+1,
			"max_attempts", policy.MaxAttempts,
			"delay", delay.String(),
			"error", err,
		)
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: migrate failed after %d attempts: %v", ErrUnavailable, policy.MaxAttempts, lastErr)
}
