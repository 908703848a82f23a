package task

import (
	"slices"
	"time"

	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// Snapshot is the persisted shape of a Task.
type Snapshot struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ProjectID        *uuid.UUID
	Title            string
	Description      string
	Status           Status
	Score            int
	Urgency          int
	Impact           int
	MemoryContext    int
	PriorityComputed bool
	DueDate          *time.Time
	EstimatedMinutes int
	Tags             []string
	Dependencies     []uuid.UUID
	MemoryLinks      []string
	CognitiveLoad    vo.CognitiveLoad
	WorkMode         vo.WorkMode
	Lock             *LockedPriority
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// Snapshot exports the task state.
func (t *Task) Snapshot() Snapshot {
	s := Snapshot{
		ID:               t.ID(),
		UserID:           t.userID,
		Title:            t.title,
		Description:      t.description,
		Status:           t.status,
		Score:            t.priority.Score(),
		Urgency:          t.priority.Urgency(),
		Impact:           t.priority.Impact(),
		MemoryContext:    t.priority.MemoryContext(),
		PriorityComputed: !t.priority.IsZero(),
		EstimatedMinutes: t.duration.Minutes(),
		Tags:             slices.Clone(t.tags),
		Dependencies:     slices.Clone(t.dependencies),
		MemoryLinks:      slices.Clone(t.memoryLinks),
		CognitiveLoad:    t.cognitiveLoad,
		WorkMode:         t.workMode,
		CreatedAt:        t.CreatedAt(),
		UpdatedAt:        t.UpdatedAt(),
		Version:          t.Version(),
	}
	if t.projectID != nil {
		id := *t.projectID
		s.ProjectID = &id
	}
	if t.dueDate != nil {
		d := *t.dueDate
		s.DueDate = &d
	}
	if t.completedAt != nil {
		c := *t.completedAt
		s.CompletedAt = &c
	}
	s.Lock = t.LockedPriority()
	return s
}

// FromSnapshot rebuilds a task from persisted state.
func FromSnapshot(s Snapshot) *Task {
	duration, err := vo.NewDuration(s.EstimatedMinutes)
	if err != nil {
		duration, _ = vo.NewDuration(1)
	}
	t := &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(
			domain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
			s.Version,
		),
		userID:        s.UserID,
		title:         s.Title,
		description:   s.Description,
		status:        s.Status,
		duration:      duration,
		tags:          normalizeTags(s.Tags),
		dependencies:  slices.Clone(s.Dependencies),
		memoryLinks:   slices.Clone(s.MemoryLinks),
		cognitiveLoad: s.CognitiveLoad,
		workMode:      s.WorkMode,
	}
	if s.PriorityComputed {
		t.priority = vo.NewPriority(s.Score, s.Urgency, s.Impact, s.MemoryContext)
	}
	if s.ProjectID != nil {
		id := *s.ProjectID
		t.projectID = &id
	}
	if s.DueDate != nil {
		d := s.DueDate.UTC()
		t.dueDate = &d
	}
	if s.CompletedAt != nil {
		c := s.CompletedAt.UTC()
		t.completedAt = &c
	}
	if s.Lock != nil {
		lock := *s.Lock
		t.lock = &lock
	}
	if t.cognitiveLoad == "" {
		t.cognitiveLoad = vo.CognitiveLoadModerate
	}
	if t.workMode == "" {
		t.workMode = vo.WorkModeAdmin
	}
	return t
}
