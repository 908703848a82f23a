// Package icalendar turns iCalendar VEVENTs into busy calendar events. It is
// shared by the CalDAV and ICS importers.
package icalendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/google/uuid"
)

const untitled = "(busy)"

// Mapper converts VEVENTs of one source into domain events.
type Mapper struct {
	UserID   uuid.UUID
	Source   domain.Source
	Prefix   string
	Location *time.Location
	SyncedAt time.Time
}

// Map returns the busy events of cal that overlap [from, to). Recurring events
// are expanded into one event per occurrence. VEVENTs that cannot be read are
// reported in skipped and left out.
func (m Mapper) Map(cal *ical.Calendar, from, to time.Time) (events []*domain.Event, skipped []error) {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, ve := range cal.Events() {
		mapped, err := m.mapEvent(&ve, loc, from, to)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		events = append(events, mapped...)
	}
	return events, skipped
}

func (m Mapper) mapEvent(ve *ical.Event, loc *time.Location, from, to time.Time) ([]*domain.Event, error) {
	uid, _ := ve.Props.Text(ical.PropUID)
	if uid == "" {
		return nil, fmt.Errorf("vevent without UID")
	}
	if isFree(ve) {
		return nil, nil
	}

	start, err := ve.DateTimeStart(loc)
	if err != nil {
		return nil, fmt.Errorf("vevent %s: %w", uid, err)
	}
	end, err := ve.DateTimeEnd(loc)
	if err != nil {
		return nil, fmt.Errorf("vevent %s: %w", uid, err)
	}
	allDay := false
	if p := ve.Props.Get(ical.PropDateTimeStart); p != nil && p.ValueType() == ical.ValueDate {
		allDay = true
	}
	if !end.After(start) {
		if !allDay {
			return nil, nil
		}
		end = start.AddDate(0, 0, 1)
	}

	title, _ := ve.Props.Text(ical.PropSummary)
	if strings.TrimSpace(title) == "" {
		title = untitled
	}
	priority := 0
	if p := ve.Props.Get(ical.PropPriority); p != nil {
		priority, _ = strconv.Atoi(p.Value)
	}

	occurrences := []time.Time{start}
	set, err := ve.RecurrenceSet(loc)
	if err != nil {
		return nil, fmt.Errorf("vevent %s: recurrence: %w", uid, err)
	}
	if set != nil {
		length := end.Sub(start)
		occurrences = set.Between(from.Add(-length), to, true)
	}

	var out []*domain.Event
	for _, occStart := range occurrences {
		occEnd := occStart.Add(end.Sub(start))
		if !occStart.Before(to) || !occEnd.After(from) {
			continue
		}
		externalID := m.Prefix + uid
		if set != nil {
			externalID += "@" + occStart.UTC().Format(time.RFC3339)
		}

		var event *domain.Event
		if allDay {
			lastDay := occEnd.AddDate(0, 0, -1)
			event, err = domain.NewAllDayEvent(m.UserID, m.Source, externalID, title, occStart, lastDay, loc, m.SyncedAt)
		} else {
			event, err = domain.NewEvent(m.UserID, m.Source, externalID, title, occStart, occEnd, m.SyncedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("vevent %s: %w", uid, err)
		}
		event.SetPriority(priority)
		out = append(out, event)
	}
	return out, nil
}

// isFree reports VEVENTs that do not block time.
func isFree(ve *ical.Event) bool {
	if status, _ := ve.Props.Text(ical.PropStatus); strings.EqualFold(status, "CANCELLED") {
		return true
	}
	transp, _ := ve.Props.Text(ical.PropTransparency)
	return strings.EqualFold(transp, "TRANSPARENT")
}
