package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/timetably/timetably/internal/metrics"
	"github.com/timetably/timetably/internal/model"
)

// Validation paths return before any repository call, so a zero-value
// service is enough to exercise them.

func TestUserServiceRegisterValidation(t *testing.T) {
	svc := &UserService{metrics: metrics.NewNoop()}
	ctx := context.Background()

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:    "empty email",
			input:   RegisterInput{Email: "", Password: "secret-pass"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "email without domain",
			input:   RegisterInput{Email: "alice@", Password: "secret-pass"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "email without at sign",
			input:   RegisterInput{Email: "alice.example.com", Password: "secret-pass"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "email with spaces",
			input:   RegisterInput{Email: "alice smith@example.com", Password: "secret-pass"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "unknown role",
			input:   RegisterInput{Email: "alice@example.com", Password: "secret-pass", Role: "admin"},
			wantErr: ErrInvalidRole,
		},
		{
			name:    "short password",
			input:   RegisterInput{Email: "alice@example.com", Password: "short"},
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "empty password",
			input:   RegisterInput{Email: "alice@example.com"},
			wantErr: ErrPasswordTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserServiceLoginValidation(t *testing.T) {
	svc := &UserService{metrics: metrics.NewNoop()}

	_, err := svc.Login(context.Background(), "not-an-email", "whatever")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("Login() error = %v, want %v", err, ErrInvalidEmail)
	}
}

func TestUserServiceResolveValidation(t *testing.T) {
	svc := &UserService{metrics: metrics.NewNoop()}
	ctx := context.Background()

	t.Run("empty identifier", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "   ", model.UserHints{})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrInvalidEmail)
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "@example.com", model.UserHints{})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrInvalidEmail)
		}
	})

	t.Run("bad role hint", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "alice@example.com", model.UserHints{Role: "superuser"})
		if !errors.Is(err, ErrInvalidRole) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrInvalidRole)
		}
	})
}

func TestScheduleServiceCreateValidation(t *testing.T) {
	svc := &ScheduleService{metrics: metrics.NewNoop()}
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateScheduleInput
		wantErr error
	}{
		{
			name:    "empty identifier",
			input:   CreateScheduleInput{UserIdentifier: "", Courses: []CourseInput{{Code: "IT101"}}},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "malformed email",
			input:   CreateScheduleInput{UserIdentifier: "bad@@example", Courses: []CourseInput{{Code: "IT101"}}},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "no courses",
			input:   CreateScheduleInput{UserIdentifier: "alice@example.com"},
			wantErr: ErrEmptyCourseList,
		},
		{
			name: "blank course code",
			input: CreateScheduleInput{
				UserIdentifier: "alice@example.com",
				Courses:        []CourseInput{{Code: "   "}},
			},
			wantErr: ErrInvalidCourseCode,
		},
		{
			name: "negative credits",
			input: CreateScheduleInput{
				UserIdentifier: "alice@example.com",
				Courses:        []CourseInput{{Code: "IT101", Credits: -3}},
			},
			wantErr: ErrNegativeCredits,
		},
		{
			name: "bad role hint",
			input: CreateScheduleInput{
				UserIdentifier: "alice@example.com",
				Courses:        []CourseInput{{Code: "IT101", Credits: 3}},
				UserHints:      model.UserHints{Role: "wizard"},
			},
			wantErr: ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSchedule(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateSchedule() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheduleServiceUpdateValidation(t *testing.T) {
	svc := &ScheduleService{metrics: metrics.NewNoop()}
	ctx := context.Background()

	t.Run("empty course list", func(t *testing.T) {
		_, err := svc.UpdateSchedule(ctx, "some-id", nil)
		if !errors.Is(err, ErrEmptyCourseList) {
			t.Errorf("UpdateSchedule() error = %v, want %v", err, ErrEmptyCourseList)
		}
	})

	t.Run("negative credits in second course", func(t *testing.T) {
		courses := []CourseInput{
			{Code: "IT101", Credits: 3},
			{Code: "IT102", Credits: -1},
		}
		_, err := svc.UpdateSchedule(ctx, "some-id", courses)
		if !errors.Is(err, ErrNegativeCredits) {
			t.Errorf("UpdateSchedule() error = %v, want %v", err, ErrNegativeCredits)
		}
		if err != nil && !strings.Contains(err.Error(), "IT102") {
			t.Errorf("error should name the offending course, got %q", err.Error())
		}
	})
}

func TestValidateCourses(t *testing.T) {
	if err := validateCourses([]CourseInput{{Code: "IT101", Credits: 0}}); err != nil {
		t.Errorf("zero credits should be valid, got %v", err)
	}
	if err := validateCourses([]CourseInput{}); !errors.Is(err, ErrEmptyCourseList) {
		t.Errorf("expected ErrEmptyCourseList, got %v", err)
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short name untouched", in: "Fall 2026", max: 20, want: "Fall 2026"},
		{name: "exact length untouched", in: "abcde", max: 5, want: "abcde"},
		{name: "ascii truncated at limit", in: "abcdef", max: 4, want: "abcd"},
		{name: "multi-byte rune not split", in: "计划表", max: 4, want: "计"},
		{name: "boundary lands between runes", in: "计划表", max: 6, want: "计划"},
		{name: "all multi-byte dropped", in: "计", max: 2, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateName(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("truncateName(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateName(%q, %d) produced invalid UTF-8", tt.in, tt.max)
			}
		})
	}
}

func TestToRepoCoursesTrimsCodes(t *testing.T) {
	out := toRepoCourses([]CourseInput{{Code: "  IT101  ", Name: "Intro", Credits: 3}})
	if len(out) != 1 {
		t.Fatalf("expected 1 course, got %d", len(out))
	}
	if out[0].Code != "IT101" {
		t.Errorf("Code = %q, want %q", out[0].Code, "IT101")
	}
}
