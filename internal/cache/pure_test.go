package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/timetably/timetably/internal/model"
)

func TestScheduleKey(t *testing.T) {
	t.Parallel()

	if got := scheduleKey("01HX2Y"); got != "schedule:01HX2Y" {
		t.Errorf("scheduleKey = %q, want %q", got, "schedule:01HX2Y")
	}
}

func TestUserListKey(t *testing.T) {
	t.Parallel()

	if got := userListKey("ada@uni.edu"); got != "user_schedules:ada@uni.edu" {
		t.Errorf("userListKey = %q, want %q", got, "user_schedules:ada@uni.edu")
	}
}

func TestScheduleDetailsEncoding(t *testing.T) {
	t.Parallel()

	capacity := 40
	details := model.ScheduleDetails{
		Schedule: model.Schedule{
			ID:           "01HX2Y",
			UserID:       "01HX2Z",
			Name:         "Autumn plan",
			TotalCredits: 7,
			CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC),
		},
		Courses: []model.Course{
			{ID: "c1", Code: "IT101", Name: "Intro to IT", Credits: 3, Capacity: &capacity},
			{ID: "c2", Code: "IT102", Name: "Data Structures", Credits: 4},
		},
	}

	data, err := json.Marshal(&details)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded model.ScheduleDetails
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Schedule.ID != details.Schedule.ID {
		t.Errorf("Schedule.ID = %q, want %q", decoded.Schedule.ID, details.Schedule.ID)
	}
	if decoded.Schedule.TotalCredits != 7 {
		t.Errorf("TotalCredits = %d, want 7", decoded.Schedule.TotalCredits)
	}
	if len(decoded.Courses) != 2 {
		t.Fatalf("Courses length = %d, want 2", len(decoded.Courses))
	}
	if decoded.Courses[0].Capacity == nil || *decoded.Courses[0].Capacity != 40 {
		t.Error("Capacity should round-trip through the cache encoding")
	}
	if decoded.Courses[1].Capacity != nil {
		t.Error("absent Capacity should stay nil")
	}
}
