// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/timetably/timetably/internal/auth"
	"github.com/timetably/timetably/internal/metrics"
	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/repository"
)

// Service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid role")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// Email validation regex: permissive shape check, not RFC 5322.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// UserService handles user registration and resolution.
type UserService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		repo:    repo,
		metrics: recorder,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email     string
	Name      string
	Password  string
	StudentID *string
	Role      string
}

// Register creates a new user account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	role := model.RoleStudent
	if input.Role != "" {
		role = model.Role(input.Role)
		if !role.IsValid() {
			return nil, ErrInvalidRole
		}
	}

	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         name,
		StudentID:    input.StudentID,
		Role:         role,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserResolved("created")

	return user, nil
}

// Login resolves the user for an email, creating the account on first
// reference. Authentication is intentionally thin: a password is only
// checked against accounts that registered one.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	user, created, err := s.repo.ResolveUser(ctx, email, model.UserHints{})
	if err != nil {
		return nil, err
	}
	if created {
		s.metrics.IncUserResolved("created")
	} else {
		s.metrics.IncUserResolved("existing")
	}

	if user.PasswordHash != nil {
		ok, err := auth.VerifyPassword(password, *user.PasswordHash)
		if err != nil || !ok {
			return nil, ErrInvalidCredentials
		}
	}

	return user, nil
}

// Resolve returns the user for an identifier, creating one when the
// identifier is an email with no existing account. Identifiers containing
// "@" are treated as emails; anything else is looked up as a user ID.
func (s *UserService) Resolve(ctx context.Context, identifier string, hints model.UserHints) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrInvalidEmail
	}

	if !strings.Contains(identifier, "@") {
		user, err := s.repo.GetUserByID(ctx, identifier)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		s.metrics.IncUserResolved("existing")
		return user, nil
	}

	email := strings.ToLower(identifier)
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if hints.Role != "" && !hints.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	user, created, err := s.repo.ResolveUser(ctx, email, hints)
	if err != nil {
		return nil, err
	}
	if created {
		s.metrics.IncUserResolved("created")
	} else {
		s.metrics.IncUserResolved("existing")
	}
	return user, nil
}
