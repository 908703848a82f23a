package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeRange = errors.New("event end must be after start")
	ErrEventNotFound    = errors.New("calendar event not found")
	ErrEmptyTitle       = errors.New("event title cannot be empty")
)

// Event is an immovable calendar entry. The scheduler treats it as occupied
// time and never moves it.
type Event struct {
	id            uuid.UUID
	userID        uuid.UUID
	source        Source
	externalID    string
	title         string
	start         time.Time
	end           time.Time
	isAllDay      bool
	canReschedule bool
	priority      int
	syncedAt      time.Time
}

// NewEvent validates and creates an event. An empty externalID gets the
// event's own ID, which is what manual events use.
func NewEvent(userID uuid.UUID, source Source, externalID, title string, start, end, syncedAt time.Time) (*Event, error) {
	if !source.IsValid() {
		return nil, ErrInvalidSource
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%q: %w", title, ErrInvalidTimeRange)
	}

	id := uuid.New()
	if externalID == "" {
		externalID = id.String()
	}
	return &Event{
		id:         id,
		userID:     userID,
		source:     source,
		externalID: externalID,
		title:      title,
		start:      start.UTC(),
		end:        end.UTC(),
		syncedAt:   syncedAt.UTC(),
	}, nil
}

// NewAllDayEvent creates an event covering whole days in loc, from the
// midnight of firstDay up to the midnight after lastDay.
func NewAllDayEvent(userID uuid.UUID, source Source, externalID, title string, firstDay, lastDay time.Time, loc *time.Location, syncedAt time.Time) (*Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	first := firstDay.In(loc)
	last := lastDay.In(loc)
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	e, err := NewEvent(userID, source, externalID, title, start, end, syncedAt)
	if err != nil {
		return nil, err
	}
	e.isAllDay = true
	return e, nil
}

// RehydrateEvent recreates an event from persisted state.
func RehydrateEvent(
	id, userID uuid.UUID,
	source Source,
	externalID, title string,
	start, end time.Time,
	isAllDay, canReschedule bool,
	priority int,
	syncedAt time.Time,
) *Event {
	return &Event{
		id:            id,
		userID:        userID,
		source:        source,
		externalID:    externalID,
		title:         title,
		start:         start.UTC(),
		end:           end.UTC(),
		isAllDay:      isAllDay,
		canReschedule: canReschedule,
		priority:      priority,
		syncedAt:      syncedAt.UTC(),
	}
}

func (e *Event) ID() uuid.UUID       { return e.id }
func (e *Event) UserID() uuid.UUID   { return e.userID }
func (e *Event) Source() Source      { return e.source }
func (e *Event) ExternalID() string  { return e.externalID }
func (e *Event) Title() string       { return e.title }
func (e *Event) Start() time.Time    { return e.start }
func (e *Event) End() time.Time      { return e.end }
func (e *Event) IsAllDay() bool      { return e.isAllDay }
func (e *Event) CanReschedule() bool { return e.canReschedule }
func (e *Event) Priority() int       { return e.priority }
func (e *Event) SyncedAt() time.Time { return e.syncedAt }

// Duration returns the event length.
func (e *Event) Duration() time.Duration {
	return e.end.Sub(e.start)
}

// Overlaps reports whether [start,end) intersects the event.
func (e *Event) Overlaps(start, end time.Time) bool {
	return e.start.Before(end) && e.end.After(start)
}

// SetCanReschedule records whether the provider marks the event as movable.
// The scheduler still treats it as fixed.
func (e *Event) SetCanReschedule(v bool) { e.canReschedule = v }

// SetPriority stores the provider's importance hint.
func (e *Event) SetPriority(p int) { e.priority = p }

// WithIdentity keeps an already stored event's ID so re-imports update rows
// in place.
func (e *Event) WithIdentity(id uuid.UUID) { e.id = id }

// Fingerprint summarizes a set of events independent of order, IDs and sync
// times. Two imports with the same fingerprint carry the same calendar.
func Fingerprint(events []*Event) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("%s|%s|%d|%d|%t|%s",
			e.source, e.externalID, e.start.UnixNano(), e.end.UnixNano(), e.isAllDay, e.title)
	}
	slices.Sort(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// EventRepository defines persistence for calendar events.
type EventRepository interface {
	// Save inserts or updates a single event, keyed by (user, source, external ID).
	Save(ctx context.Context, event *Event) error

	// ReplaceSource swaps every stored event of one source for the given set.
	ReplaceSource(ctx context.Context, userID uuid.UUID, source Source, events []*Event) error

	// FindBySource returns all stored events of one source.
	FindBySource(ctx context.Context, userID uuid.UUID, source Source) ([]*Event, error)

	// FindInRange returns events overlapping [from, to), ordered by start.
	FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*Event, error)

	// Delete removes an event.
	Delete(ctx context.Context, id uuid.UUID) error
}
