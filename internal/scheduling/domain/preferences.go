package domain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWorkingHours   = errors.New("invalid working hours")
	ErrInvalidPreferences    = errors.New("invalid preferences")
	ErrPreferencesNotFound   = errors.New("preferences not found")
	ErrDeepWorkMinimumTooLow = errors.New("deep work minimum must be at least 120 minutes")
)

// MinDeepWorkMinutes is the floor for the deep work minimum.
const MinDeepWorkMinutes = 120

// WorkingHours is the daily working window, as "HH:MM" wall-clock times in
// the user's timezone, and the weekdays it applies to (0 = Sunday).
type WorkingHours struct {
	Start      string `yaml:"start" json:"start"`
	End        string `yaml:"end" json:"end"`
	DaysOfWeek []int  `yaml:"days_of_week" json:"days_of_week"`
}

// FocusBlocks tunes deep work and buffering.
type FocusBlocks struct {
	DeepWorkMinDuration     int    `yaml:"deep_work_min_duration" json:"deep_work_min_duration"`
	BufferBetweenTasks      int    `yaml:"buffer_between_tasks" json:"buffer_between_tasks"`
	MaxTasksPerDay          int    `yaml:"max_tasks_per_day" json:"max_tasks_per_day"`
	DeepWorkPreferredTime   string `yaml:"deep_work_preferred_time" json:"deep_work_preferred_time"`
	MaxDeepWorkBlocksPerDay int    `yaml:"max_deep_work_blocks_per_day" json:"max_deep_work_blocks_per_day"`
}

// SchedulingOptions toggles engine behavior.
type SchedulingOptions struct {
	WeekendWork    bool `yaml:"weekend_work" json:"weekend_work"`
	AutoReschedule bool `yaml:"auto_reschedule" json:"auto_reschedule"`
	ManualOnly     bool `yaml:"manual_only" json:"manual_only"`
}

// UserPreferences is read-only input to the engine.
type UserPreferences struct {
	WorkingHours WorkingHours      `yaml:"working_hours" json:"working_hours"`
	FocusBlocks  FocusBlocks       `yaml:"focus_blocks" json:"focus_blocks"`
	Scheduling   SchedulingOptions `yaml:"scheduling" json:"scheduling"`
	Timezone     string            `yaml:"timezone" json:"timezone"`
}

// DefaultPreferences returns 09:00-17:00 Monday to Friday in UTC.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		WorkingHours: WorkingHours{
			Start:      "09:00",
			End:        "17:00",
			DaysOfWeek: []int{1, 2, 3, 4, 5},
		},
		FocusBlocks: FocusBlocks{
			DeepWorkMinDuration:     120,
			BufferBetweenTasks:      15,
			MaxTasksPerDay:          8,
			DeepWorkPreferredTime:   "morning",
			MaxDeepWorkBlocksPerDay: 2,
		},
		Scheduling: SchedulingOptions{
			AutoReschedule: true,
		},
		Timezone: "UTC",
	}
}

// Validate checks the preferences and returns the first problem found.
func (p UserPreferences) Validate() error {
	start, end, err := p.WorkingHours.Bounds()
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWorkingHours, p.WorkingHours.End, p.WorkingHours.Start)
	}
	for _, d := range p.WorkingHours.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d", ErrInvalidWorkingHours, d)
		}
	}
	if p.FocusBlocks.DeepWorkMinDuration < MinDeepWorkMinutes {
		return ErrDeepWorkMinimumTooLow
	}
	if p.FocusBlocks.BufferBetweenTasks < 0 || p.FocusBlocks.MaxTasksPerDay < 0 || p.FocusBlocks.MaxDeepWorkBlocksPerDay < 0 {
		return fmt.Errorf("%w: negative focus block setting", ErrInvalidPreferences)
	}
	if _, err := time.LoadLocation(p.timezone()); err != nil {
		return fmt.Errorf("%w: timezone %q", ErrInvalidPreferences, p.Timezone)
	}
	return nil
}

// Location returns the user's timezone, UTC when unset or unknown.
func (p UserPreferences) Location() *time.Location {
	loc, err := time.LoadLocation(p.timezone())
	if err != nil {
		return time.UTC
	}
	return loc
}

func (p UserPreferences) timezone() string {
	if p.Timezone == "" {
		return "UTC"
	}
	return p.Timezone
}

// IsWorkingDay reports whether the engine may place blocks on day. Weekend
// days also count when weekend work is enabled.
func (p UserPreferences) IsWorkingDay(day time.Weekday) bool {
	if slices.Contains(p.WorkingHours.DaysOfWeek, int(day)) {
		return true
	}
	return isWeekend(day) && p.Scheduling.WeekendWork
}

// SkipsDay reports whether multi-day searches should pass over day. It is
// the complement of IsWorkingDay.
func (p UserPreferences) SkipsDay(day time.Weekday) bool {
	return !p.IsWorkingDay(day)
}

// Window returns the working window of the calendar day containing date.
func (p UserPreferences) Window(date time.Time) (TimeSlot, error) {
	start, end, err := p.WorkingHours.Bounds()
	if err != nil {
		return TimeSlot{}, err
	}
	loc := p.Location()
	d := date.In(loc)
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return TimeSlot{
		Start: atClock(midnight, start),
		End:   atClock(midnight, end),
	}, nil
}

// DeepWorkMinimum returns the effective deep work floor.
func (p UserPreferences) DeepWorkMinimum() int {
	return max(p.FocusBlocks.DeepWorkMinDuration, MinDeepWorkMinutes)
}

// Bounds parses Start and End into minutes after midnight.
func (w WorkingHours) Bounds() (int, int, error) {
	start, err := ParseClock(w.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseClock parses "HH:MM" into minutes after midnight. "24:00" is allowed
// as an end of day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWorkingHours, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWorkingHours, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWorkingHours, s)
	}
	return h*60 + m, nil
}

// atClock adds wall-clock minutes to midnight so DST days keep their
// nominal hours.
func atClock(midnight time.Time, minutes int) time.Time {
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), minutes/60, minutes%60, 0, 0, midnight.Location())
}

func isWeekend(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}

// PreferencesRepository stores preferences per user.
type PreferencesRepository interface {
	// Find returns ErrPreferencesNotFound when the user never saved any.
	Find(ctx context.Context, userID uuid.UUID) (UserPreferences, error)
	Save(ctx context.Context, userID uuid.UUID, prefs UserPreferences) error
}

// LoadPreferences reads userID's preferences from repo, falling back when
// repo is nil or holds none.
func LoadPreferences(ctx context.Context, repo PreferencesRepository, userID uuid.UUID, fallback UserPreferences) (UserPreferences, error) {
	if repo == nil {
		return fallback, nil
	}
	prefs, err := repo.Find(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return fallback, nil
	}
	if err != nil {
		return UserPreferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}
