package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/timetably/timetably/internal/cache"
	"github.com/timetably/timetably/internal/metrics"
	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/repository"
)

// Schedule service errors.
var (
	ErrEmptyCourseList   = errors.New("schedule must contain at least one course")
	ErrInvalidCourseCode = errors.New("invalid course code")
	ErrNegativeCredits   = errors.New("credits must be non-negative")
	ErrScheduleNotFound  = errors.New("schedule not found")
)

const maxScheduleNameLength = 200

// ScheduleService handles schedule business logic.
type ScheduleService struct {
	repo        *repository.Repository
	cache       *cache.Cache
	metrics     metrics.Recorder
	scheduleTTL time.Duration
	listTTL     time.Duration
}

// NewScheduleService creates a new ScheduleService. Cache may be nil when
// running without Redis.
func NewScheduleService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder, scheduleTTL, listTTL time.Duration) *ScheduleService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ScheduleService{
		repo:        repo,
		cache:       cache,
		metrics:     recorder,
		scheduleTTL: scheduleTTL,
		listTTL:     listTTL,
	}
}

// CourseInput defines a course referenced by a schedule. Catalog fields
// beyond Code are used only when the course does not exist yet.
type CourseInput struct {
	Code       string
	Name       string
	Credits    int
	Instructor string
	TimeSlot   string
	Room       string
	Weeks      string
	Capacity   *int
}

// CreateScheduleInput defines input for creating a schedule.
type CreateScheduleInput struct {
	UserIdentifier string
	Name           string
	Courses        []CourseInput
	UserHints      model.UserHints
}

// CreateScheduleResult reports what a schedule write produced.
type CreateScheduleResult struct {
	Schedule     *model.Schedule
	TotalCredits int
	CourseCount  int
}

// CreateSchedule persists a new schedule, creating the user and any
// unknown courses along the way.
func (s *ScheduleService) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*CreateScheduleResult, error) {
	email, err := s.resolveEmail(ctx, input.UserIdentifier)
	if err != nil {
		return nil, err
	}
	if err := validateCourses(input.Courses); err != nil {
		return nil, err
	}
	if input.UserHints.Role != "" && !input.UserHints.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Schedule " + time.Now().UTC().Format("2006-01-02 15:04")
	}
	name = truncateName(name, maxScheduleNameLength)

	start := time.Now()
	schedule, total, err := s.repo.CreateSchedule(ctx, email, name, toRepoCourses(input.Courses), input.UserHints)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveWriteDuration("create_schedule", time.Since(start))
	s.metrics.IncScheduleCreated()

	s.invalidateList(ctx, email)
	s.invalidateCatalog(ctx)

	return &CreateScheduleResult{
		Schedule:     schedule,
		TotalCredits: total,
		CourseCount:  len(input.Courses),
	}, nil
}

// UpdateSchedule replaces a schedule's course list.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, scheduleID string, courses []CourseInput) (*CreateScheduleResult, error) {
	if err := validateCourses(courses); err != nil {
		return nil, err
	}

	start := time.Now()
	schedule, total, err := s.repo.UpdateSchedule(ctx, scheduleID, toRepoCourses(courses))
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	s.metrics.ObserveWriteDuration("update_schedule", time.Since(start))
	s.metrics.IncScheduleUpdated()

	s.invalidateSchedule(ctx, schedule)
	s.invalidateCatalog(ctx)

	return &CreateScheduleResult{
		Schedule:     schedule,
		TotalCredits: total,
		CourseCount:  len(courses),
	}, nil
}

// DeleteSchedule removes a schedule and its entries.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	// Fetch first so the owner's cached list can be invalidated.
	details, err := s.repo.GetScheduleDetails(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}

	if err := s.repo.DeleteSchedule(ctx, scheduleID); err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	s.metrics.IncScheduleDeleted()

	s.invalidateSchedule(ctx, &details.Schedule)

	return nil
}

// GetUserSchedules lists schedule summaries for a user identifier. Unknown
// users get an empty list, not an error.
func (s *ScheduleService) GetUserSchedules(ctx context.Context, identifier string) ([]model.ScheduleSummary, error) {
	email, err := s.resolveListEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return []model.ScheduleSummary{}, nil
		}
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetUserSchedules(ctx, email)
		if err == nil {
			s.metrics.IncCacheHit("user_schedules")
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncCacheMiss("user_schedules")
		}
	}

	summaries, err := s.repo.GetUserSchedules(ctx, email)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetUserSchedules(ctx, email, summaries, s.listTTL)
	}

	return summaries, nil
}

// GetScheduleDetails returns a schedule with its full course list.
func (s *ScheduleService) GetScheduleDetails(ctx context.Context, scheduleID string) (*model.ScheduleDetails, error) {
	if s.cache != nil {
		cached, err := s.cache.GetScheduleDetails(ctx, scheduleID)
		if err == nil {
			s.metrics.IncCacheHit("schedule")
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncCacheMiss("schedule")
		}
	}

	details, err := s.repo.GetScheduleDetails(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetScheduleDetails(ctx, details, s.scheduleTTL)
	}

	return details, nil
}

// resolveEmail maps a write-path identifier to an email. Identifiers
// without "@" must name an existing user.
func (s *ScheduleService) resolveEmail(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrInvalidEmail
	}
	if strings.Contains(identifier, "@") {
		email := strings.ToLower(identifier)
		if !emailRegex.MatchString(email) {
			return "", ErrInvalidEmail
		}
		return email, nil
	}
	user, err := s.repo.GetUserByID(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return user.Email, nil
}

// resolveListEmail is resolveEmail for the read path, where a malformed
// email is just a user we have never seen.
func (s *ScheduleService) resolveListEmail(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrInvalidEmail
	}
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier), nil
	}
	user, err := s.repo.GetUserByID(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return user.Email, nil
}

func (s *ScheduleService) invalidateSchedule(ctx context.Context, schedule *model.Schedule) {
	if s.cache == nil {
		return
	}
	email := ""
	if user, err := s.repo.GetUserByID(ctx, schedule.UserID); err == nil {
		email = user.Email
	}
	// Eventual consistency is acceptable; TTLs bound the staleness.
	_ = s.cache.InvalidateSchedule(ctx, schedule.ID, email)
}

func (s *ScheduleService) invalidateList(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateSchedule(ctx, "", email)
}

func (s *ScheduleService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateCourseCatalog(ctx)
}

func validateCourses(courses []CourseInput) error {
	if len(courses) == 0 {
		return ErrEmptyCourseList
	}
	for _, c := range courses {
		if strings.TrimSpace(c.Code) == "" {
			return ErrInvalidCourseCode
		}
		if c.Credits < 0 {
			return fmt.Errorf("%w: course %s", ErrNegativeCredits, c.Code)
		}
	}
	return nil
}

// truncateName caps name at max bytes without splitting a multi-byte rune.
func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func toRepoCourses(courses []CourseInput) []repository.CourseInput {
	out := make([]repository.CourseInput, 0, len(courses))
	for _, c := range courses {
		out = append(out, repository.CourseInput{
			Code:       strings.TrimSpace(c.Code),
			Name:       c.Name,
			Credits:    c.Credits,
			Instructor: c.Instructor,
			TimeSlot:   c.TimeSlot,
			Room:       c.Room,
			Weeks:      c.Weeks,
			Capacity:   c.Capacity,
		})
	}
	return out
}
