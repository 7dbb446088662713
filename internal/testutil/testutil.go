package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls all migrations down and back up, leaving an empty
// schema at the latest version.
func ResetSchema(ctx context.Context, databaseURL string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}
	dir := filepath.Join(root, "migrations")

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.DownToContext(ctx, sqlDB, dir, 0); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

// TruncateAll wipes every domain table. Faster than ResetSchema between
// tests that share a migrated database.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE users, courses, schedules, schedule_entries CASCADE")
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        UniqueID("user"),
		Email:     email,
		Name:      "Test User",
		Role:      model.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCourse creates a course input with sensible defaults.
func NewTestCourse(t testing.TB, code string, credits int) repository.CourseInput {
	t.Helper()
	return repository.CourseInput{
		Code:       code,
		Name:       "Course " + code,
		Credits:    credits,
		Instructor: "Dr. Test",
		TimeSlot:   "Mon 09:00-11:00",
		Room:       "B101",
		Weeks:      "1-16",
	}
}

// UniqueEmail generates a unique email for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
