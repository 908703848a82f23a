package queries

import (
	"context"
	"errors"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

type fakeBlocks struct {
	blocks []domain.TimeBlock
	reads  int
}

func (r *fakeBlocks) ReplaceAll(_ context.Context, _ uuid.UUID, blocks []domain.TimeBlock) error {
	r.blocks = blocks
	return nil
}

func (r *fakeBlocks) FindByUser(context.Context, uuid.UUID) ([]domain.TimeBlock, error) {
	r.reads++
	return r.blocks, nil
}

func (r *fakeBlocks) FindInRange(_ context.Context, _ uuid.UUID, from, to time.Time) ([]domain.TimeBlock, error) {
	r.reads++
	var out []domain.TimeBlock
	for _, b := range r.blocks {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBlocks) FindStartingBetween(context.Context, time.Time, time.Time) ([]domain.TimeBlock, error) {
	return nil, nil
}

type fakeEvents struct {
	events []*calendarDomain.Event
}

func (r *fakeEvents) Save(_ context.Context, e *calendarDomain.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeEvents) ReplaceSource(context.Context, uuid.UUID, calendarDomain.Source, []*calendarDomain.Event) error {
	return nil
}

func (r *fakeEvents) FindBySource(context.Context, uuid.UUID, calendarDomain.Source) ([]*calendarDomain.Event, error) {
	return r.events, nil
}

func (r *fakeEvents) FindInRange(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*calendarDomain.Event, error) {
	var out []*calendarDomain.Event
	for _, e := range r.events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEvents) Delete(context.Context, uuid.UUID) error { return nil }

type fakeCache struct {
	snapshot *domain.ScheduleSnapshot
	err      error
}

func (c *fakeCache) Get(context.Context, uuid.UUID) (domain.ScheduleSnapshot, bool, error) {
	if c.err != nil {
		return domain.ScheduleSnapshot{}, false, c.err
	}
	if c.snapshot == nil {
		return domain.ScheduleSnapshot{}, false, nil
	}
	return *c.snapshot, true, nil
}

func (c *fakeCache) Put(_ context.Context, s domain.ScheduleSnapshot) error {
	c.snapshot = &s
	return nil
}

func (c *fakeCache) Invalidate(context.Context, uuid.UUID) error {
	c.snapshot = nil
	return nil
}

type fakePrefs struct {
	prefs *domain.UserPreferences
}

func (r *fakePrefs) Find(context.Context, uuid.UUID) (domain.UserPreferences, error) {
	if r.prefs == nil {
		return domain.UserPreferences{}, domain.ErrPreferencesNotFound
	}
	return *r.prefs, nil
}

func (r *fakePrefs) Save(_ context.Context, _ uuid.UUID, p domain.UserPreferences) error {
	r.prefs = &p
	return nil
}

var errBoom = errors.New("boom")
