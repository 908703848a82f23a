package commands

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

type memTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*task.Task
	saved int
}

func newMemTasks(tasks ...*task.Task) *memTasks {
	r := &memTasks{tasks: map[uuid.UUID]*task.Task{}}
	for _, t := range tasks {
		r.tasks[t.ID()] = t
	}
	return r
}

func (r *memTasks) Save(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID()] = t
	r.saved++
	return nil
}

func (r *memTasks) SaveAll(ctx context.Context, tasks []*task.Task) error {
	for _, t := range tasks {
		if err := r.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *memTasks) FindByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *memTasks) FindByUser(_ context.Context, userID uuid.UUID, _ task.Filter) ([]*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Task
	for _, t := range r.tasks {
		if t.UserID() == userID {
			out = append(out, t.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *task.Task) int { return strings.Compare(a.Title(), b.Title()) })
	return out, nil
}

func (r *memTasks) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

type memBlocks struct {
	mu     sync.Mutex
	blocks map[uuid.UUID][]domain.TimeBlock
}

func newMemBlocks() *memBlocks {
	return &memBlocks{blocks: map[uuid.UUID][]domain.TimeBlock{}}
}

func (r *memBlocks) ReplaceAll(_ context.Context, userID uuid.UUID, blocks []domain.TimeBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[userID] = slices.Clone(blocks)
	return nil
}

func (r *memBlocks) FindByUser(_ context.Context, userID uuid.UUID) ([]domain.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.blocks[userID]), nil
}

func (r *memBlocks) FindInRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimeBlock
	for _, b := range r.blocks[userID] {
		if b.Start().Before(to) && b.End().After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBlocks) FindStartingBetween(_ context.Context, from, to time.Time) ([]domain.TimeBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TimeBlock
	for _, blocks := range r.blocks {
		for _, b := range blocks {
			if b.Start().After(from) && !b.Start().After(to) {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

type memEvents struct {
	events []*calendarDomain.Event
}

func (r *memEvents) Save(_ context.Context, e *calendarDomain.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *memEvents) ReplaceSource(_ context.Context, userID uuid.UUID, source calendarDomain.Source, events []*calendarDomain.Event) error {
	kept := r.events[:0]
	for _, e := range r.events {
		if e.UserID() != userID || e.Source() != source {
			kept = append(kept, e)
		}
	}
	r.events = append(kept, events...)
	return nil
}

func (r *memEvents) FindBySource(_ context.Context, userID uuid.UUID, source calendarDomain.Source) ([]*calendarDomain.Event, error) {
	var out []*calendarDomain.Event
	for _, e := range r.events {
		if e.UserID() == userID && e.Source() == source {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEvents) FindInRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*calendarDomain.Event, error) {
	var out []*calendarDomain.Event
	for _, e := range r.events {
		if e.UserID() == userID && e.Start().Before(to) && e.End().After(from) {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubLock struct {
	err      error
	acquired int
	released int
}

func (l *stubLock) Acquire(context.Context, uuid.UUID) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

type memCache struct {
	snapshots map[uuid.UUID]domain.ScheduleSnapshot
}

func newMemCache() *memCache {
	return &memCache{snapshots: map[uuid.UUID]domain.ScheduleSnapshot{}}
}

func (c *memCache) Get(_ context.Context, userID uuid.UUID) (domain.ScheduleSnapshot, bool, error) {
	s, ok := c.snapshots[userID]
	return s, ok, nil
}

func (c *memCache) Put(_ context.Context, s domain.ScheduleSnapshot) error {
	c.snapshots[s.UserID] = s
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	delete(c.snapshots, userID)
	return nil
}

func (r *memEvents) Delete(_ context.Context, id uuid.UUID) error {
	r.events = slices.DeleteFunc(r.events, func(e *calendarDomain.Event) bool { return e.ID() == id })
	return nil
}
