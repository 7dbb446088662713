package model

import "time"

// Course is a catalog entry deduplicated by its course code natural key.
// A course is created lazily the first time a schedule references an
// unknown code; later references reuse the existing row.
type Course struct {
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
