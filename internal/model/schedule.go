package model

import "time"

// Schedule is a timetable owned by exactly one user. TotalCredits is
// derived: it is recomputed from the associated courses on every write
// and never trusted from caller input.
type Schedule struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	TotalCredits int       `json:"total_credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScheduleEntry links one course into one schedule. Entries have no
// identity beyond the pair and are replaced wholesale on update.
type ScheduleEntry struct {
	ScheduleID string    `json:"schedule_id"`
	CourseID   string    `json:"course_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScheduleSummary is the list-view shape of a schedule.
type ScheduleSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	TotalCredits int       `json:"total_credits"`
	CourseCount  int       `json:"course_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScheduleDetails is a schedule together with its resolved courses.
type ScheduleDetails struct {
	Schedule Schedule `json:"schedule"`
	Courses  []Course `json:"courses"`
}
