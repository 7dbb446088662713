package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timetably/timetably/internal/model"
)

// Cache key prefixes and TTLs. Schedule reads dominate the workload while
// writes invalidate aggressively, so short TTLs are mostly a safety net.
const (
	scheduleKeyPrefix = "schedule:"
	userListKeyPrefix = "user_schedules:"
	courseCatalogKey  = "courses:catalog"

	// DefaultScheduleTTL is the TTL for cached schedule details.
	DefaultScheduleTTL = 10 * time.Minute

	// DefaultListTTL is the TTL for cached per-user schedule lists.
	DefaultListTTL = 2 * time.Minute

	// DefaultCatalogTTL is the TTL for the cached course catalog.
	DefaultCatalogTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func scheduleKey(scheduleID string) string {
	return scheduleKeyPrefix + scheduleID
}

func userListKey(email string) string {
	return userListKeyPrefix + email
}

// GetScheduleDetails retrieves cached schedule details.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetScheduleDetails(ctx context.Context, scheduleID string) (*model.ScheduleDetails, error) {
	data, err := c.client.Get(ctx, scheduleKey(scheduleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var details model.ScheduleDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("failed to decode cached schedule: %w", err)
	}
	return &details, nil
}

// SetScheduleDetails stores schedule details with the given TTL.
// A zero ttl uses DefaultScheduleTTL.
func (c *Cache) SetScheduleDetails(ctx context.Context, details *model.ScheduleDetails, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultScheduleTTL
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode schedule: %w", err)
	}
	if err := c.client.Set(ctx, scheduleKey(details.Schedule.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// GetUserSchedules retrieves a cached per-user schedule list.
func (c *Cache) GetUserSchedules(ctx context.Context, email string) ([]model.ScheduleSummary, error) {
	data, err := c.client.Get(ctx, userListKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var summaries []model.ScheduleSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode cached schedule list: %w", err)
	}
	return summaries, nil
}

// SetUserSchedules stores a per-user schedule list.
func (c *Cache) SetUserSchedules(ctx context.Context, email string, summaries []model.ScheduleSummary, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to encode schedule list: %w", err)
	}
	if err := c.client.Set(ctx, userListKey(email), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateSchedule drops the cached details for one schedule and the
// owning user's list. Either argument may be empty to skip that key.
func (c *Cache) InvalidateSchedule(ctx context.Context, scheduleID, email string) error {
	keys := make([]string, 0, 2)
	if scheduleID != "" {
		keys = append(keys, scheduleKey(scheduleID))
	}
	if email != "" {
		keys = append(keys, userListKey(email))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// GetCourseCatalog retrieves the cached catalog.
func (c *Cache) GetCourseCatalog(ctx context.Context) ([]model.Course, error) {
	data, err := c.client.Get(ctx, courseCatalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var courses []model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode cached catalog: %w", err)
	}
	return courses, nil
}

// SetCourseCatalog stores the catalog.
func (c *Cache) SetCourseCatalog(ctx context.Context, courses []model.Course, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	data, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := c.client.Set(ctx, courseCatalogKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateCourseCatalog drops the cached catalog, e.g. after a schedule
// write lazily created a course.
func (c *Cache) InvalidateCourseCatalog(ctx context.Context) error {
	if err := c.client.Del(ctx, courseCatalogKey).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
