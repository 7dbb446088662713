//go:build integration

package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/testutil"
)

// ============================================================================
// Schedule Repository Integration Tests
// ============================================================================

func TestIntegrationCreateSchedule(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("create")
	courses := []CourseInput{
		testutil.NewTestCourse(t, testutil.UniqueID("IT101"), 3),
		testutil.NewTestCourse(t, testutil.UniqueID("IT102"), 4),
	}

	schedule, total, err := repo.CreateSchedule(ctx, email, "Fall plan", courses, model.UserHints{Name: "Alice"})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	if total != 7 {
		t.Errorf("TotalCredits = %d, want 7", total)
	}
	if schedule.TotalCredits != 7 {
		t.Errorf("schedule.TotalCredits = %d, want 7", schedule.TotalCredits)
	}
	if schedule.Name != "Fall plan" {
		t.Errorf("Name = %q, want %q", schedule.Name, "Fall plan")
	}

	details, err := repo.GetScheduleDetails(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetScheduleDetails failed: %v", err)
	}
	if len(details.Courses) != 2 {
		t.Errorf("course count = %d, want 2", len(details.Courses))
	}

	// The user was created as a side effect.
	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("user.Name = %q, want %q", user.Name, "Alice")
	}
}

func TestIntegrationCreateSchedule_CourseDedup(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	code := testutil.UniqueID("SHARED")
	courses := []CourseInput{testutil.NewTestCourse(t, code, 3)}

	s1, _, err := repo.CreateSchedule(ctx, testutil.UniqueEmail("dedup1"), "A", courses, model.UserHints{})
	if err != nil {
		t.Fatalf("CreateSchedule (first) failed: %v", err)
	}
	s2, _, err := repo.CreateSchedule(ctx, testutil.UniqueEmail("dedup2"), "B", courses, model.UserHints{})
	if err != nil {
		t.Fatalf("CreateSchedule (second) failed: %v", err)
	}

	d1, err := repo.GetScheduleDetails(ctx, s1.ID)
	if err != nil {
		t.Fatalf("GetScheduleDetails failed: %v", err)
	}
	d2, err := repo.GetScheduleDetails(ctx, s2.ID)
	if err != nil {
		t.Fatalf("GetScheduleDetails failed: %v", err)
	}

	// Both schedules reference the same course row.
	if d1.Courses[0].ID != d2.Courses[0].ID {
		t.Errorf("course rows differ: %q vs %q", d1.Courses[0].ID, d2.Courses[0].ID)
	}

	// Catalog fields come from the first reference and are not rewritten.
	course, err := repo.GetCourseByCode(ctx, code)
	if err != nil {
		t.Fatalf("GetCourseByCode failed: %v", err)
	}
	if course.Credits != 3 {
		t.Errorf("Credits = %d, want 3", course.Credits)
	}
}

func TestIntegrationResolveUser_Idempotent(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("resolve")

	u1, created, err := repo.ResolveUser(ctx, email, model.UserHints{Name: "First"})
	if err != nil {
		t.Fatalf("ResolveUser (first) failed: %v", err)
	}
	if !created {
		t.Error("first resolve should create the user")
	}

	u2, created, err := repo.ResolveUser(ctx, email, model.UserHints{Name: "Second"})
	if err != nil {
		t.Fatalf("ResolveUser (second) failed: %v", err)
	}
	if created {
		t.Error("second resolve should reuse the existing user")
	}
	if u1.ID != u2.ID {
		t.Errorf("user IDs differ: %q vs %q", u1.ID, u2.ID)
	}
	if u2.Name != "First" {
		t.Errorf("hints must not overwrite existing user, Name = %q", u2.Name)
	}
}

func TestIntegrationUpdateSchedule_ReplacesEntries(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("update")
	initial := []CourseInput{
		testutil.NewTestCourse(t, testutil.UniqueID("U1"), 3),
		testutil.NewTestCourse(t, testutil.UniqueID("U2"), 4),
	}

	schedule, _, err := repo.CreateSchedule(ctx, email, "Before", initial, model.UserHints{})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	replacement := []CourseInput{testutil.NewTestCourse(t, testutil.UniqueID("U3"), 5)}
	updated, total, err := repo.UpdateSchedule(ctx, schedule.ID, replacement)
	if err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	if total != 5 {
		t.Errorf("TotalCredits = %d, want 5", total)
	}
	if updated.TotalCredits != 5 {
		t.Errorf("updated.TotalCredits = %d, want 5", updated.TotalCredits)
	}

	details, err := repo.GetScheduleDetails(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetScheduleDetails failed: %v", err)
	}
	if len(details.Courses) != 1 {
		t.Errorf("course count after update = %d, want 1", len(details.Courses))
	}

	// Replaced courses stay in the catalog.
	if _, err := repo.GetCourseByCode(ctx, initial[0].Code); err != nil {
		t.Errorf("replaced course should remain in catalog: %v", err)
	}
}

func TestIntegrationUpdateSchedule_NotFound(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	_, _, err := repo.UpdateSchedule(ctx, "nonexistent-id", []CourseInput{testutil.NewTestCourse(t, "X1", 1)})
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("Expected ErrScheduleNotFound, got: %v", err)
	}
}

func TestIntegrationDeleteSchedule(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("delete")
	courses := []CourseInput{testutil.NewTestCourse(t, testutil.UniqueID("D1"), 2)}

	schedule, _, err := repo.CreateSchedule(ctx, email, "Doomed", courses, model.UserHints{})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	if err := repo.DeleteSchedule(ctx, schedule.ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}

	if _, err := repo.GetScheduleDetails(ctx, schedule.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("Expected ErrScheduleNotFound after delete, got: %v", err)
	}

	// Entries are gone, the catalog row and user are not.
	if _, err := repo.GetCourseByCode(ctx, courses[0].Code); err != nil {
		t.Errorf("catalog course should survive schedule delete: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, email); err != nil {
		t.Errorf("user should survive schedule delete: %v", err)
	}

	if err := repo.DeleteSchedule(ctx, schedule.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("Expected ErrScheduleNotFound on double delete, got: %v", err)
	}
}

func TestIntegrationGetUserSchedules(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("list")

	// Unknown users list as empty, not as an error.
	summaries, err := repo.GetUserSchedules(ctx, email)
	if err != nil {
		t.Fatalf("GetUserSchedules failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected empty list for unknown user, got %d", len(summaries))
	}

	courses := []CourseInput{
		testutil.NewTestCourse(t, testutil.UniqueID("L1"), 3),
		testutil.NewTestCourse(t, testutil.UniqueID("L2"), 4),
	}
	schedule, _, err := repo.CreateSchedule(ctx, email, "Listed", courses, model.UserHints{})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	summaries, err = repo.GetUserSchedules(ctx, email)
	if err != nil {
		t.Fatalf("GetUserSchedules failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].ID != schedule.ID {
		t.Errorf("summary ID = %q, want %q", summaries[0].ID, schedule.ID)
	}
	if summaries[0].CourseCount != 2 {
		t.Errorf("CourseCount = %d, want 2", summaries[0].CourseCount)
	}
	if summaries[0].TotalCredits != 7 {
		t.Errorf("TotalCredits = %d, want 7", summaries[0].TotalCredits)
	}
}

func TestIntegrationCreateSchedule_RollbackOnBadCourse(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	email := testutil.UniqueEmail("rollback")
	courses := []CourseInput{
		testutil.NewTestCourse(t, testutil.UniqueID("R1"), 3),
		testutil.NewTestCourse(t, testutil.UniqueID("R2"), -5), // violates credits CHECK
	}

	if _, _, err := repo.CreateSchedule(ctx, email, "Broken", courses, model.UserHints{}); err == nil {
		t.Fatal("expected CreateSchedule to fail on CHECK violation")
	}

	// Nothing from the failed transaction is visible.
	if _, err := repo.GetCourseByCode(ctx, courses[0].Code); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("first course should have been rolled back, got: %v", err)
	}
	summaries, err := repo.GetUserSchedules(ctx, email)
	if err != nil {
		t.Fatalf("GetUserSchedules failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected no schedules after rollback, got %d", len(summaries))
	}
}

func TestIntegrationCreateSchedule_RollbackAfterHeaderInsert(t *testing.T) {
	ctx, repo := newScheduleTestEnv(t)

	pool, err := repo.Supervisor().Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire pool: %v", err)
	}

	email := testutil.UniqueEmail("partial")
	course := testutil.NewTestCourse(t, testutil.UniqueID("P1"), 3)
	errInjected := errors.New("injected failure")

	// Run the create sequence up to and including the schedule header
	// insert, then fail before any entry rows are written. The whole
	// transaction must roll back, including the header.
	var scheduleID string
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		user, err := resolveUserTx(ctx, tx, email, model.UserHints{})
		if err != nil {
			return err
		}
		resolved, err := resolveCourseTx(ctx, tx, course)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		scheduleID = ulid.Make().String()
		insert := `
			INSERT INTO schedules (id, user_id, name, total_credits, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.Exec(ctx, insert, scheduleID, user.ID, "Half written", resolved.Credits, now, now); err != nil {
			return err
		}
		return errInjected
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure, got: %v", err)
	}

	if _, err := repo.GetScheduleDetails(ctx, scheduleID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("schedule header should have been rolled back, got: %v", err)
	}
	if _, err := repo.GetCourseByCode(ctx, course.Code); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("course should have been rolled back, got: %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, email); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("user should have been rolled back, got: %v", err)
	}

	var entries int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM schedule_entries WHERE schedule_id = $1`, scheduleID).Scan(&entries); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("expected 0 entries after rollback, got %d", entries)
	}
}

// ============================================================================
// Test environment
// ============================================================================

func newScheduleTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("resolve project root: %v", err)
	}
	if err := db.Migrate(ctx, dbURL, filepath.Join(root, "migrations"), db.DefaultPolicy, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	repo, err := New(ctx, Config{DatabaseURL: dbURL}, nil)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	pool, err := repo.Supervisor().Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire pool: %v", err)
	}

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.TruncateAll(ctx, pool); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return ctx, repo
}
