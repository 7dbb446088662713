package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timetably/timetably/internal/db"
	"github.com/timetably/timetably/internal/handler/dto"
	"github.com/timetably/timetably/internal/service"
)

// CourseHandler handles HTTP requests for the course catalog.
type CourseHandler struct {
	svc    *service.CourseService
	logger *slog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(svc *service.CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/v1/courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.svc.ListCourses(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCourseListResponse(courses))
}

// Get handles GET /api/v1/courses/{code}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_CODE", "Course code is required")
		return
	}

	course, err := h.svc.GetCourse(r.Context(), code)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCourseResponse(course))
}

// handleServiceError maps service errors to HTTP responses.
func (h *CourseHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		h.writeError(w, http.StatusNotFound, "COURSE_NOT_FOUND", "Course not found")
	case errors.Is(err, service.ErrInvalidCourseCode):
		h.writeError(w, http.StatusBadRequest, "INVALID_COURSE_CODE", "Course code must not be empty")
	case errors.Is(err, db.ErrUnavailable):
		h.logger.Error("database_unavailable", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is temporarily unavailable, please retry")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *CourseHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
