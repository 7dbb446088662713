// Command seed-courses loads a course catalog JSON file into the
// database through the resilient repository, creating a demo schedule
// so a fresh environment has data to browse.
//
// Usage:
//
//	go run ./scripts/seed-courses.go -database-url $DATABASE_URL -file courses.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/repository"
)

type seedCourse struct {
	Code       string `json:"course_code"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	Instructor string `json:"instructor,omitempty"`
	TimeSlot   string `json:"time,omitempty"`
	Room       string `json:"room,omitempty"`
	Weeks      string `json:"weeks,omitempty"`
	Capacity   *int   `json:"capacity,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		file        = flag.String("file", "courses.json", "Path to course catalog JSON")
		email       = flag.String("email", "seed@timetably.local", "Owner of the seed schedule")
		name        = flag.String("name", "Seed catalog", "Name of the seed schedule")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	courses, err := loadCourses(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if len(courses) == 0 {
		fmt.Fprintln(os.Stderr, "catalog file contains no courses")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	repo, err := repository.New(ctx, repository.Config{DatabaseURL: *databaseURL}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	schedule, total, err := repo.CreateSchedule(ctx, *email, *name, courses, model.UserHints{Name: "Seed"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "seed schedule:", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %d courses (%d credits) into schedule %s\n", len(courses), total, schedule.ID)
}

func loadCourses(path string) ([]repository.CourseInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw []seedCourse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	courses := make([]repository.CourseInput, 0, len(raw))
	for _, c := range raw {
		courses = append(courses, repository.CourseInput{
			Code:       c.Code,
			Name:       c.Name,
			Credits:    c.Credits,
			Instructor: c.Instructor,
			TimeSlot:   c.TimeSlot,
			Room:       c.Room,
			Weeks:      c.Weeks,
			Capacity:   c.Capacity,
		})
	}
	return courses, nil
}
