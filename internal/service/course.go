package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/timetably/timetably/internal/cache"
	"github.com/timetably/timetably/internal/metrics"
	"github.com/timetably/timetably/internal/model"
	"github.com/timetably/timetably/internal/repository"
)

// ErrCourseNotFound is returned when a course code matches nothing.
var ErrCourseNotFound = errors.New("course not found")

// CourseService serves the course catalog.
type CourseService struct {
	repo       *repository.Repository
	cache      *cache.Cache
	metrics    metrics.Recorder
	catalogTTL time.Duration
}

// NewCourseService creates a new CourseService. Cache may be nil.
func NewCourseService(repo *repository.Repository, cache *cache.Cache, recorder metrics.Recorder, catalogTTL time.Duration) *CourseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CourseService{
		repo:       repo,
		cache:      cache,
		metrics:    recorder,
		catalogTTL: catalogTTL,
	}
}

// ListCourses returns the full catalog, cache-first.
func (s *CourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCourseCatalog(ctx)
		if err == nil {
			s.metrics.IncCacheHit("catalog")
			return cached, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncCacheMiss("catalog")
		}
	}

	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetCourseCatalog(ctx, courses, s.catalogTTL)
	}

	return courses, nil
}

// GetCourse returns a single course by its code.
func (s *CourseService) GetCourse(ctx context.Context, code string) (*model.Course, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCourseCode
	}

	course, err := s.repo.GetCourseByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}
