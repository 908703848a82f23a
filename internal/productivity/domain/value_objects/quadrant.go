package value_objects

import (
	"errors"
	"strings"
)

// Classification thresholds. They are fixed and not user-configurable.
const (
	UrgencyThreshold    = 25
	ImportanceThreshold = 22
)

var (
	ErrInvalidQuadrant       = errors.New("invalid quadrant")
	ErrInvalidTimePreference = errors.New("invalid time preference")
)

// Quadrant is a cell of the Eisenhower matrix.
type Quadrant string

const (
	QuadrantUrgentImportant       Quadrant = "urgent-important"
	QuadrantNotUrgentImportant    Quadrant = "not-urgent-important"
	QuadrantUrgentNotImportant    Quadrant = "urgent-not-important"
	QuadrantNotUrgentNotImportant Quadrant = "not-urgent-not-important"
)

// TimePreference tells the scheduler how soon a task should land.
type TimePreference string

const (
	TimePreferenceImmediate  TimePreference = "immediate"
	TimePreferenceScheduled  TimePreference = "scheduled"
	TimePreferenceDelegated  TimePreference = "delegated"
	TimePreferenceEliminated TimePreference = "eliminated"
)

// ClassifyQuadrant places urgency and impact scores into a quadrant.
func ClassifyQuadrant(urgency, impact int) Quadrant {
	urgent := urgency >= UrgencyThreshold
	important := impact >= ImportanceThreshold
	switch {
	case urgent && important:
		return QuadrantUrgentImportant
	case important:
		return QuadrantNotUrgentImportant
	case urgent:
		return QuadrantUrgentNotImportant
	default:
		return QuadrantNotUrgentNotImportant
	}
}

// TimePreference maps the quadrant to its scheduling preference.
func (q Quadrant) TimePreference() TimePreference {
	switch q {
	case QuadrantUrgentImportant:
		return TimePreferenceImmediate
	case QuadrantNotUrgentImportant:
		return TimePreferenceScheduled
	case QuadrantUrgentNotImportant:
		return TimePreferenceDelegated
	default:
		return TimePreferenceEliminated
	}
}

// IsUrgent reports whether the quadrant sits on the urgent row.
func (q Quadrant) IsUrgent() bool {
	return q == QuadrantUrgentImportant || q == QuadrantUrgentNotImportant
}

// IsImportant reports whether the quadrant sits on the important column.
func (q Quadrant) IsImportant() bool {
	return q == QuadrantUrgentImportant || q == QuadrantNotUrgentImportant
}

func (q Quadrant) String() string { return string(q) }

// ParseQuadrant parses the canonical quadrant name.
func ParseQuadrant(s string) (Quadrant, error) {
	q := Quadrant(strings.ToLower(strings.TrimSpace(s)))
	switch q {
	case QuadrantUrgentImportant, QuadrantNotUrgentImportant, QuadrantUrgentNotImportant, QuadrantNotUrgentNotImportant:
		return q, nil
	}
	return "", ErrInvalidQuadrant
}

func (p TimePreference) String() string { return string(p) }

// ParseTimePreference parses the canonical time preference name.
func ParseTimePreference(s string) (TimePreference, error) {
	p := TimePreference(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case TimePreferenceImmediate, TimePreferenceScheduled, TimePreferenceDelegated, TimePreferenceEliminated:
		return p, nil
	}
	return "", ErrInvalidTimePreference
}
