// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/service"
)

// CourseRequest represents one course inside a schedule request. Catalog
// fields beyond the code matter only the first time a code is seen.
type CourseRequest struct {
	Code       string `json:"course_code"`
	Name       string `json:"name,omitempty"`
	Credits    int    `json:"credits,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	TimeSlot   string `json:"time,omitempty"`
	Room       string `json:"room,omitempty"`
	Weeks      string `json:"weeks,omitempty"`
	Capacity   *int   `json:"capacity,omitempty"`
}

// CreateScheduleRequest represents the request body for creating a schedule.
type CreateScheduleRequest struct {
	User      string          `json:"user"`
	Name      string          `json:"name,omitempty"`
	Courses   []CourseRequest `json:"courses"`
	UserName  string          `json:"user_name,omitempty"`
	StudentID *string         `json:"student_id,omitempty"`
	Role      string          `json:"role,omitempty"`
}

// UpdateScheduleRequest represents the request body for replacing a
// schedule's course list.
type UpdateScheduleRequest struct {
	Courses []CourseRequest `json:"courses"`
}

// ScheduleResponse represents a schedule write result.
type ScheduleResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TotalCredits int       `json:"total_credits"`
	CourseCount  int       `json:"course_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScheduleListResponse represents a user's schedules.
type ScheduleListResponse struct {
	Data []model.ScheduleSummary `json:"data"`
}

// ScheduleDetailsResponse represents a schedule with its courses.
type ScheduleDetailsResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	TotalCredits int              `json:"total_credits"`
	Courses      []CourseResponse `json:"courses"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToCourseInputs converts request courses to service inputs.
func ToCourseInputs(courses []CourseRequest) []service.CourseInput {
	out := make([]service.CourseInput, len(courses))
	for i, c := range courses {
		out[i] = service.CourseInput{
			Code:       c.Code,
			Name:       c.Name,
			Credits:    c.Credits,
			Instructor: c.Instructor,
			TimeSlot:   c.TimeSlot,
			Room:       c.Room,
			Weeks:      c.Weeks,
			Capacity:   c.Capacity,
		}
	}
	return out
}

// ToScheduleResponse converts a schedule write result to its response DTO.
func ToScheduleResponse(result *service.CreateScheduleResult) *ScheduleResponse {
	return &ScheduleResponse{
		ID:           result.Schedule.ID,
		Name:         result.Schedule.Name,
		TotalCredits: result.TotalCredits,
		CourseCount:  result.CourseCount,
		CreatedAt:    result.Schedule.CreatedAt,
		UpdatedAt:    result.Schedule.UpdatedAt,
	}
}

// ToScheduleDetailsResponse converts schedule details to the response DTO.
func ToScheduleDetailsResponse(details *model.ScheduleDetails) *ScheduleDetailsResponse {
	courses := make([]CourseResponse, len(details.Courses))
	for i := range details.Courses {
		courses[i] = *ToCourseResponse(&details.Courses[i])
	}
	return &ScheduleDetailsResponse{
		ID:           details.Schedule.ID,
		Name:         details.Schedule.Name,
		TotalCredits: details.Schedule.TotalCredits,
		Courses:      courses,
		CreatedAt:    details.Schedule.CreatedAt,
		UpdatedAt:    details.Schedule.UpdatedAt,
	}
}
