// Package model defines domain entities for the application.
package model

import "time"

// Role is a user's role in the scheduling system.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// IsValid checks if the role is a known value.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleStaff
}

// User is identified by its email natural key. Users are created on first
// reference (login or schedule creation) and never physically deleted by
// the persistence layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	StudentID    *string   `json:"student_id,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserHints carries optional attributes applied when a user is created
// lazily during resolution. Zero values mean "use defaults".
type UserHints struct {
	Name      string
	StudentID *string
	Role      Role
}
