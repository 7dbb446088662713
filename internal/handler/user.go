package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/handler/dto"
	"github.com/timetably/timetably/internal/service"
)

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.RegisterInput{
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		StudentID: req.StudentID,
		Role:      req.Role,
	}

	user, err := h.svc.Register(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID, "role", user.Role)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// Login handles POST /api/v1/auth/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		h.writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Email address is malformed")
	case errors.Is(err, service.ErrInvalidRole):
		h.writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be student or staff")
	case errors.Is(err, service.ErrPasswordTooShort):
		h.writeError(w, http.StatusUnprocessableEntity, "PASSWORD_TOO_SHORT", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrEmailExists):
		h.writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
	case errors.Is(err, db.ErrUnavailable):
		h.logger.Error("database_unavailable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is temporarily unavailable, please retry")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
