package dto

import (
	"time"

	"github.com/timetably/timetably/internal/model"
)

// CourseResponse represents a catalog course in API responses.
type CourseResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"course_code"`
	Name       string    `json:"name"`
	Credits    int       `json:"credits"`
	Instructor string    `json:"instructor,omitempty"`
	TimeSlot   string    `json:"time,omitempty"`
	Room       string    `json:"room,omitempty"`
	Weeks      string    `json:"weeks,omitempty"`
	Capacity   *int      `json:"capacity,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CourseListResponse represents the course catalog.
type CourseListResponse struct {
	Data []CourseResponse `json:"data"`
}

// ToCourseResponse converts a Course model to CourseResponse DTO.
func ToCourseResponse(course *model.Course) *CourseResponse {
	return &CourseResponse{
		ID:         course.ID,
		Code:       course.Code,
		Name:       course.Name,
		Credits:    course.Credits,
		Instructor: course.Instructor,
		TimeSlot:   course.TimeSlot,
		Room:       course.Room,
		Weeks:      course.Weeks,
		Capacity:   course.Capacity,
		CreatedAt:  course.CreatedAt,
	}
}

// ToCourseListResponse converts a slice of Course models.
func ToCourseListResponse(courses []model.Course) *CourseListResponse {
	responses := make([]CourseResponse, len(courses))
	for i := range courses {
		responses[i] = *ToCourseResponse(&courses[i])
	}
	return &CourseListResponse{Data: responses}
}
