package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/timetably/timetably/internal/handler/dto"
	"github.com/timetably/timetably/internal/service"
)

// withURLParam injects a chi URL parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newTestScheduleHandler() *ScheduleHandler {
	svc := service.NewScheduleService(nil, nil, nil, 0, 0)
	return NewScheduleHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduleHandler_Create_InvalidJSON(t *testing.T) {
	h := newTestScheduleHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "INVALID_JSON" {
		t.Errorf("unexpected error code: %s", response.Code)
	}
}

func TestScheduleHandler_Create_EmptyCourseList(t *testing.T) {
	h := newTestScheduleHandler()

	body := `{"user":"alice@example.com","courses":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "EMPTY_COURSE_LIST" {
		t.Errorf("unexpected error code: %s", response.Code)
	}
}

func TestScheduleHandler_Create_BadEmail(t *testing.T) {
	h := newTestScheduleHandler()

	body := `{"user":"not an email with spaces@x","courses":[{"course_code":"IT101"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestScheduleHandler_Create_NegativeCredits(t *testing.T) {
	h := newTestScheduleHandler()

	body := `{"user":"alice@example.com","courses":[{"course_code":"IT101","credits":-2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
}

func TestScheduleHandler_List_MissingUser(t *testing.T) {
	h := newTestScheduleHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedules", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "MISSING_USER" {
		t.Errorf("unexpected error code: %s", response.Code)
	}
}

func TestScheduleHandler_Update_InvalidJSON(t *testing.T) {
	h := newTestScheduleHandler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/schedules/abc", strings.NewReader("nope"))
	rec := httptest.NewRecorder()
	req = withURLParam(req, "id", "abc")

	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
