package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/handler/dto"
	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/service"
)

// ScheduleHandler handles HTTP requests for schedule operations.
type ScheduleHandler struct {
	svc    *service.ScheduleService
	logger *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(svc *service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/schedules.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateScheduleInput{
		UserIdentifier: req.User,
		Name:           req.Name,
		Courses:        dto.ToCourseInputs(req.Courses),
		UserHints: model.UserHints{
			Name:      req.UserName,
			StudentID: req.StudentID,
			Role:      model.Role(req.Role),
		},
	}

	result, err := h.svc.CreateSchedule(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("schedule_created",
		"schedule_id", result.Schedule.ID,
		"course_count", result.CourseCount,
		"total_credits", result.TotalCredits,
	)

	writeJSON(w, http.StatusCreated, dto.ToScheduleResponse(result))
}

// List handles GET /api/v1/schedules?user={identifier}. The identifier
// may be an email or a user ID; "email" is accepted as an alias.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("user")
	if identifier == "" {
		identifier = r.URL.Query().Get("email")
	}
	if identifier == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_USER", "user query parameter is required")
		return
	}

	summaries, err := h.svc.GetUserSchedules(r.Context(), identifier)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleListResponse{Data: summaries})
}

// Get handles GET /api/v1/schedules/{id}.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Schedule ID is required")
		return
	}

	details, err := h.svc.GetScheduleDetails(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToScheduleDetailsResponse(details))
}

// Update handles PUT /api/v1/schedules/{id}.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Schedule ID is required")
		return
	}

	var req dto.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.UpdateSchedule(r.Context(), id, dto.ToCourseInputs(req.Courses))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("schedule_updated",
		"schedule_id", id,
		"course_count", result.CourseCount,
		"total_credits", result.TotalCredits,
	)

	writeJSON(w, http.StatusOK, dto.ToScheduleResponse(result))
}

// Delete handles DELETE /api/v1/schedules/{id}.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Schedule ID is required")
		return
	}

	if err := h.svc.DeleteSchedule(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("schedule_deleted", "schedule_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ScheduleHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		h.writeError(w, http.StatusNotFound, "SCHEDULE_NOT_FOUND", "Schedule not found")
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrEmptyCourseList):
		h.writeError(w, http.StatusUnprocessableEntity, "EMPTY_COURSE_LIST", "Schedule must contain at least one course")
	case errors.Is(err, service.ErrInvalidCourseCode):
		h.writeError(w, http.StatusBadRequest, "INVALID_COURSE_CODE", "Course code must not be empty")
	case errors.Is(err, service.ErrNegativeCredits):
		h.writeError(w, http.StatusUnprocessableEntity, "NEGATIVE_CREDITS", "Course credits must be non-negative")
	case errors.Is(err, service.ErrInvalidEmail):
		h.writeError(w, http.StatusBadRequest, "INVALID_USER", "User identifier must be an email or known user ID")
	case errors.Is(err, service.ErrInvalidRole):
		h.writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be student or staff")
	case errors.Is(err, db.ErrUnavailable):
		h.logger.Error("database_unavailable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is temporarily unavailable, please retry")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *ScheduleHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
