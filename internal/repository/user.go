package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, name, student_id, role, password_hash, created_at, updated_at`

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return r.exec.Do(ctx, "create_user", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `
			INSERT INTO users (id, email, name, student_id, role, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := pool.Exec(ctx, query,
			user.ID,
			user.Email,
			user.Name,
			user.StudentID,
			user.Role,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetUserByID retrieves a user by their id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user *model.User
	err := r.exec.Do(ctx, "get_user_by_id", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
		u, err := scanUser(pool.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user by ID: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

// GetUserByEmail retrieves a user by their email natural key.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user *model.User
	err := r.exec.Do(ctx, "get_user_by_email", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
		u, err := scanUser(pool.QueryRow(ctx, query, email))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user by email: %w", err)
		}
		user = u
		return nil
	})
	return user, err
}

// ResolveUser returns the user with the given email, creating it first if
// missing, and reports whether a new row was created. Lookup-then-insert
// is not atomic, so a concurrent insert for the same email can win the
// race; the unique constraint on email is the backstop, and losing the
// race falls back to re-resolving the winner.
func (r *Repository) ResolveUser(ctx context.Context, email string, hints model.UserHints) (*model.User, bool, error) {
	existing, err := r.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user := newUserFromHints(email, hints)
	if err := r.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			winner, err := r.GetUserByEmail(ctx, email)
			return winner, false, err
		}
		return nil, false, err
	}
	return user, true, nil
}

// resolveUserTx is ResolveUser scoped to a transaction, used by the
// schedule writer so user creation commits or rolls back with the rest
// of the multi-row write.
func resolveUserTx(ctx context.Context, tx pgx.Tx, email string, hints model.UserHints) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(tx.QueryRow(ctx, query, email))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user = newUserFromHints(email, hints)
	insert := `
		INSERT INTO users (id, email, name, student_id, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insert,
		user.ID, user.Email, user.Name, user.StudentID, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the insert race; the winner's row is now visible.
		user, err = scanUser(tx.QueryRow(ctx, query, email))
		if err != nil {
			return nil, fmt.Errorf("failed to re-resolve user after conflict: %w", err)
		}
	}
	return user, nil
}

// newUserFromHints builds a user row, defaulting the name to the email's
// local part and the role to student.
func newUserFromHints(email string, hints model.UserHints) *model.User {
	name := hints.Name
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}
	role := hints.Role
	if role == "" {
		role = model.RoleStudent
	}
	now := time.Now().UTC()
	return &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Name:      name,
		StudentID: hints.StudentID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateUserPassword stores a new password hash for the user.
func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	return r.exec.Do(ctx, "update_user_password", func(ctx context.Context, pool *pgxpool.Pool) error {
		query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
		tag, err := pool.Exec(ctx, query, id, passwordHash)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.StudentID,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
