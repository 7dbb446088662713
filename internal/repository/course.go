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

// Common errors for course repository operations.
var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrCourseCodeExists = errors.New("course code already exists")
)

const courseColumns = `id, course_code, name, credits, instructor, time_slot, room, weeks, capacity, created_at`

// CourseInput holds the catalog fields supplied when a schedule references
// a course. Only used when the course code is not yet known.
type CourseInput struct {
	Code       string
	Name       string
	Credits    int
	Instructor string
	TimeSlot   string
	Room       string
	Weeks      string
	Capacity   *int
}

// GetCourseByCode retrieves a course by its natural key.
func (r *Repository) GetCourseByCode(ctx context.Context, code string) (*model.Course, error) {
	var course *model.Course
	err := r.exec.Do(ctx, "get_course_by_code", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `SELECT ` + courseColumns + ` FROM courses WHERE course_code = $1`
		c, err := scanCourse(pool.QueryRow(ctx, query, code))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to get course by code: %w", err)
		}
		course = c
		return nil
	})
	return course, err
}

// ListCourses returns the full catalog ordered by course code.
func (r *Repository) ListCourses(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.exec.Do(ctx, "list_courses", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `SELECT ` + courseColumns + ` FROM courses ORDER BY course_code`
		rows, err := pool.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}
		defer rows.Close()

		courses = courses[:0]
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
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// resolveCourseTx looks a course up by code inside the transaction,
// inserting it with the supplied fields when absent. The ON CONFLICT
// clause makes concurrent first references of the same code converge on
// one row instead of duplicating the catalog entry.
func resolveCourseTx(ctx context.Context, tx pgx.Tx, input CourseInput) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE course_code = $1`
	course, err := scanCourse(tx.QueryRow(ctx, query, input.Code))
	if err == nil {
		return course, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get course by code: %w", err)
	}

	course = &model.Course{
		ID:         ulid.Make().String(),
		Code:       input.Code,
		Name:       input.Name,
		Credits:    input.Credits,
		Instructor: input.Instructor,
		TimeSlot:   input.TimeSlot,
		Room:       input.Room,
		Weeks:      input.Weeks,
		Capacity:   input.Capacity,
		CreatedAt:  time.Now().UTC(),
	}
	insert := `
		INSERT INTO courses (id, course_code, name, credits, instructor, time_slot, room, weeks, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (course_code) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert,
		course.ID, course.Code, course.Name, course.Credits, course.Instructor,
		course.TimeSlot, course.Room, course.Weeks, course.Capacity, course.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		course, err = scanCourse(tx.QueryRow(ctx, query, input.Code))
		if err != nil {
			return nil, fmt.Errorf("failed to re-resolve course after conflict: %w", err)
		}
	}
	return course, nil
}

// scanCourse scans a single row into a Course model.
func scanCourse(row pgx.Row) (*model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.Code,
		&course.Name,
		&course.Credits,
		&course.Instructor,
		&course.TimeSlot,
		&course.Room,
		&course.Weeks,
		&course.Capacity,
		&course.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}
