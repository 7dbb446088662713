package dto

import (
	"time"

	"github.com/timetably/timetably/internal/model"
)

// RegisterRequest represents the request body for registering a user.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Name      string  `json:"name,omitempty"`
	Password  string  `json:"password"`
	StudentID *string `json:"student_id,omitempty"`
	Role      string  `json:"role,omitempty"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	StudentID *string   `json:"student_id,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		StudentID: user.StudentID,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
