package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/timetably/timetably/internal/model"
)

// Common errors for schedule repository operations.
var (
	ErrScheduleNotFound = errors.New("schedule not found")
)

// CreateSchedule persists a schedule and its course associations in one
// transaction: resolve-or-create the owning user, resolve-or-insert each
// course by code, insert the schedule header with the recomputed credit
// total, then the join rows. Any failure rolls the whole write back; the
// operation recomputes all state on entry, so the retry executor can
// safely repeat it after a transient failure.
func (r *Repository) CreateSchedule(ctx context.Context, email, name string, courses []CourseInput, hints model.UserHints) (*model.Schedule, int, error) {
	var schedule *model.Schedule
	var courseCount int

	err := r.exec.Do(ctx, "create_schedule", func(ctx context.Context, pool *pgxpool.Pool) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			user, err := resolveUserTx(ctx, tx, email, hints)
			if err != nil {
				return err
			}

			resolved := make([]*model.Course, 0, len(courses))
			totalCredits := 0
			for _, input := range courses {
				course, err := resolveCourseTx(ctx, tx, input)
				if err != nil {
					return err
				}
				resolved = append(resolved, course)
				totalCredits += course.Credits
			}

			now := time.Now().UTC()
			s := &model.Schedule{
				ID:           ulid.Make().String(),
				UserID:       user.ID,
				Name:         name,
				TotalCredits: totalCredits,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			insert := `
				INSERT INTO schedules (id, user_id, name, total_credits, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`
			if _, err := tx.Exec(ctx, insert, s.ID, s.UserID, s.Name, s.TotalCredits, s.CreatedAt, s.UpdatedAt); err != nil {
				return fmt.Errorf("failed to create schedule: %w", err)
			}

			if err := insertEntriesTx(ctx, tx, s.ID, resolved, now); err != nil {
				return err
			}

			schedule = s
			courseCount = len(resolved)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return schedule, courseCount, nil
}

// UpdateSchedule replaces all course associations of a schedule and
// recomputes its credit total, transactionally. Entries are deleted and
// reinserted wholesale rather than diffed.
func (r *Repository) UpdateSchedule(ctx context.Context, scheduleID string, courses []CourseInput) (*model.Schedule, int, error) {
	var schedule *model.Schedule
	var courseCount int

	err := r.exec.Do(ctx, "update_schedule", func(ctx context.Context, pool *pgxpool.Pool) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			var s model.Schedule
			query := `
				SELECT id, user_id, name, total_credits, created_at, updated_at
				FROM schedules WHERE id = $1 FOR UPDATE
			`
			err := tx.QueryRow(ctx, query, scheduleID).Scan(
				&s.ID, &s.UserID, &s.Name, &s.TotalCredits, &s.CreatedAt, &s.UpdatedAt,
			)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrScheduleNotFound
				}
				return fmt.Errorf("failed to get schedule: %w", err)
			}

			if _, err := tx.Exec(ctx, `DELETE FROM schedule_entries WHERE schedule_id = $1`, scheduleID); err != nil {
				return fmt.Errorf("failed to clear schedule entries: %w", err)
			}

			resolved := make([]*model.Course, 0, len(courses))
			totalCredits := 0
			for _, input := range courses {
				course, err := resolveCourseTx(ctx, tx, input)
				if err != nil {
					return err
				}
				resolved = append(resolved, course)
				totalCredits += course.Credits
			}

			now := time.Now().UTC()
			if err := insertEntriesTx(ctx, tx, scheduleID, resolved, now); err != nil {
				return err
			}

			update := `UPDATE schedules SET total_credits = $2, updated_at = $3 WHERE id = $1`
			if _, err := tx.Exec(ctx, update, scheduleID, totalCredits, now); err != nil {
				return fmt.Errorf("failed to update schedule: %w", err)
			}

			s.TotalCredits = totalCredits
			s.UpdatedAt = now
			schedule = &s
			courseCount = len(resolved)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return schedule, courseCount, nil
}

// DeleteSchedule removes a schedule. Its entries are removed by the
// store's cascade rule.
func (r *Repository) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return r.exec.Do(ctx, "delete_schedule", func(ctx context.Context, pool *pgxpool.Pool) error {
		tag, err := pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, scheduleID)
		if err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrScheduleNotFound
		}
		return nil
	})
}

// GetUserSchedules lists a user's schedules newest first. An unknown
// email yields an empty list, not an error.
func (r *Repository) GetUserSchedules(ctx context.Context, email string) ([]model.ScheduleSummary, error) {
	summaries := []model.ScheduleSummary{}
	err := r.exec.Do(ctx, "get_user_schedules", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `
			SELECT s.id, s.name, s.total_credits, COUNT(e.course_id), s.created_at
			FROM schedules s
			JOIN users u ON u.id = s.user_id
			LEFT JOIN schedule_entries e ON e.schedule_id = s.id
			WHERE u.email = $1
			GROUP BY s.id, s.name, s.total_credits, s.created_at
			ORDER BY s.created_at DESC
		`
		rows, err := pool.Query(ctx, query, email)
		if err != nil {
			return fmt.Errorf("failed to list schedules: %w", err)
		}
		defer rows.Close()

		summaries = summaries[:0]
		for rows.Next() {
			var s model.ScheduleSummary
			if err := rows.Scan(&s.ID, &s.Name, &s.TotalCredits, &s.CourseCount, &s.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan schedule summary: %w", err)
			}
			summaries = append(summaries, s)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating schedules: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetScheduleDetails returns a schedule with its resolved courses.
func (r *Repository) GetScheduleDetails(ctx context.Context, scheduleID string) (*model.ScheduleDetails, error) {
	var details *model.ScheduleDetails
	err := r.exec.Do(ctx, "get_schedule_details", func(ctx context.Context, pool *pgxpool.Pool) error {
		var s model.Schedule
		query := `
			SELECT id, user_id, name, total_credits, created_at, updated_at
			FROM schedules WHERE id = $1
		`
		err := pool.QueryRow(ctx, query, scheduleID).Scan(
			&s.ID, &s.UserID, &s.Name, &s.TotalCredits, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrScheduleNotFound
			}
			return fmt.Errorf("failed to get schedule: %w", err)
		}

		courseQuery := `
			SELECT c.id, c.course_code, c.name, c.credits, c.instructor, c.time_slot, c.room, c.weeks, c.capacity, c.created_at
			FROM courses c
			JOIN schedule_entries e ON e.course_id = c.id
			WHERE e.schedule_id = $1
			ORDER BY c.course_code
		`
		rows, err := pool.Query(ctx, courseQuery, scheduleID)
		if err != nil {
			return fmt.Errorf("failed to list schedule courses: %w", err)
		}
		defer rows.Close()

		courses := []model.Course{}
		for rows.Next() {
			c, err := scanCourse(rows)
			if err != nil {
				return fmt.Errorf("failed to scan course: %w", err)
			}
			courses = append(courses, *c)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating courses: %w", err)
		}

		details = &model.ScheduleDetails{Schedule: s, Courses: courses}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// insertEntriesTx inserts one join row per resolved course.
func insertEntriesTx(ctx context.Context, tx pgx.Tx, scheduleID string, courses []*model.Course, now time.Time) error {
	for _, course := range courses {
		insert := `
			INSERT INTO schedule_entries (schedule_id, course_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (schedule_id, course_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, insert, scheduleID, course.ID, now); err != nil {
			return fmt.Errorf("failed to create schedule entry: %w", err)
		}
	}
	return nil
}
