package application_test

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

type fakeImporter struct {
	source domain.Source
	events []*domain.Event
	err    error
	calls  int
	prefix string
}

func (f *fakeImporter) Source() domain.Source { return f.source }

func (f *fakeImporter) Import(context.Context, time.Time, time.Time) ([]*domain.Event, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

// partialImporter owns only external IDs with its prefix.
type partialImporter struct{ *fakeImporter }

func (p partialImporter) Owns(externalID string) bool {
	return strings.HasPrefix(externalID, p.prefix)
}

type memEvents struct {
	mu     sync.Mutex
	events []*domain.Event
	writes int
}

func (r *memEvents) Save(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.events = append(r.events, e)
	return nil
}

func (r *memEvents) ReplaceSource(_ context.Context, userID uuid.UUID, source domain.Source, events []*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.events = slices.DeleteFunc(r.events, func(e *domain.Event) bool {
		return e.UserID() == userID && e.Source() == source
	})
	r.events = append(r.events, events...)
	return nil
}

func (r *memEvents) FindBySource(_ context.Context, userID uuid.UUID, source domain.Source) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.UserID() == userID && e.Source() == source {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEvents) FindInRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Event
	for _, e := range r.events {
		if e.UserID() == userID && e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEvents) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = slices.DeleteFunc(r.events, func(e *domain.Event) bool { return e.ID() == id })
	return nil
}

type memStates struct {
	states map[domain.Source]*domain.SyncState
}

func newMemStates() *memStates {
	return &memStates{states: map[domain.Source]*domain.SyncState{}}
}

func (r *memStates) Save(_ context.Context, s *domain.SyncState) error {
	r.states[s.Source()] = s
	return nil
}

func (r *memStates) Find(_ context.Context, _ uuid.UUID, source domain.Source) (*domain.SyncState, error) {
	return r.states[source], nil
}

func (r *memStates) FindByUser(context.Context, uuid.UUID) ([]*domain.SyncState, error) {
	var out []*domain.SyncState
	for _, s := range r.states {
		out = append(out, s)
	}
	return out, nil
}

type recordingSink struct {
	triggers []schedulingDomain.Trigger
}

func (s *recordingSink) Submit(_ context.Context, _ uuid.UUID, trigger schedulingDomain.Trigger) error {
	s.triggers = append(s.triggers, trigger)
	return nil
}
