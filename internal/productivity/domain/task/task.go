package task

import (
	"errors"
	"slices"
	"strings"
	"time"

	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptyTitle        = errors.New("task title cannot be empty")
	ErrTaskCompleted     = errors.New("task is already completed")
	ErrTaskNotFound      = errors.New("task not found")
	ErrSelfDependency    = errors.New("task cannot depend on itself")
	ErrPriorityNotLocked = errors.New("task priority is not locked")
)

// Well-known tags the engine reacts to.
const (
	TagUrgent      = "urgent"
	TagBlocked     = "blocked"
	TagImportant   = "important"
	TagStrategic   = "strategic"
	TagOverdue     = "overdue"
	TagRescheduled = "rescheduled"
)

// Lock score bounds.
const (
	MinLockedScore = 1
	MaxLockedScore = 100
)

// Status represents the task lifecycle state.
type Status int

const (
	StatusTodo Status = iota
	StatusInProgress
	StatusCompleted
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "todo"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ErrInvalidStatus is returned for unknown status names.
var ErrInvalidStatus = errors.New("invalid task status")

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "":
		return StatusTodo, nil
	case "in-progress", "in_progress":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "blocked":
		return StatusBlocked, nil
	}
	return StatusTodo, ErrInvalidStatus
}

// IsActive reports whether the scheduler should place blocks for the status.
func (s Status) IsActive() bool {
	return s == StatusTodo || s == StatusInProgress
}

// LockedPriority is a user override that pins the score.
type LockedPriority struct {
	Score    int       `json:"score"`
	Reason   string    `json:"reason"`
	LockedAt time.Time `json:"locked_at"`
	LockedBy string    `json:"locked_by"`
}

// Task is a unit of work the engine scores and schedules.
type Task struct {
	domain.BaseAggregateRoot
	userID        uuid.UUID
	projectID     *uuid.UUID
	title         string
	description   string
	status        Status
	priority      vo.Priority
	dueDate       *time.Time
	duration      vo.Duration
	tags          []string
	dependencies  []uuid.UUID
	memoryLinks   []string
	cognitiveLoad vo.CognitiveLoad
	workMode      vo.WorkMode
	lock          *LockedPriority
	completedAt   *time.Time
}

// NewTask creates a todo task with the given title and estimate.
func NewTask(userID uuid.UUID, title string, duration vo.Duration, now time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if duration.Minutes() <= 0 {
		return nil, vo.ErrInvalidDuration
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(now),
		userID:            userID,
		title:             title,
		status:            StatusTodo,
		duration:          duration,
		cognitiveLoad:     vo.CognitiveLoadModerate,
		workMode:          vo.WorkModeAdmin,
	}

	t.AddDomainEvent(NewTaskCreated(t, now))

	return t, nil
}

func (t *Task) UserID() uuid.UUID               { return t.userID }
func (t *Task) ProjectID() *uuid.UUID           { return t.projectID }
func (t *Task) Title() string                   { return t.title }
func (t *Task) Description() string             { return t.description }
func (t *Task) Status() Status                  { return t.status }
func (t *Task) Priority() vo.Priority           { return t.priority }
func (t *Task) DueDate() *time.Time             { return t.dueDate }
func (t *Task) Duration() vo.Duration           { return t.duration }
func (t *Task) EstimatedMinutes() int           { return t.duration.Minutes() }
func (t *Task) Tags() []string                  { return slices.Clone(t.tags) }
func (t *Task) Dependencies() []uuid.UUID       { return slices.Clone(t.dependencies) }
func (t *Task) MemoryLinks() []string           { return slices.Clone(t.memoryLinks) }
func (t *Task) CognitiveLoad() vo.CognitiveLoad { return t.cognitiveLoad }
func (t *Task) WorkMode() vo.WorkMode           { return t.workMode }
func (t *Task) IsPriorityLocked() bool          { return t.lock != nil }
func (t *Task) CompletedAt() *time.Time         { return t.completedAt }
func (t *Task) IsCompleted() bool               { return t.status == StatusCompleted }

// LockedPriority returns a copy of the lock, or nil when unlocked.
func (t *Task) LockedPriority() *LockedPriority {
	if t.lock == nil {
		return nil
	}
	lock := *t.lock
	return &lock
}

// HasTag reports whether the task carries the tag.
func (t *Task) HasTag(tag string) bool {
	_, found := slices.BinarySearch(t.tags, normalizeTag(tag))
	return found
}

// IsOverdue reports whether the due date has passed at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsCompleted() && t.dueDate != nil && t.dueDate.Before(now)
}

// SetDescription updates the description.
func (t *Task) SetDescription(description string, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	t.description = strings.TrimSpace(description)
	t.Touch(now)
	return nil
}

// SetTitle updates the title.
func (t *Task) SetTitle(title string, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	t.Touch(now)
	return nil
}

// SetProject links the task to a project. A nil ID unlinks it.
func (t *Task) SetProject(projectID *uuid.UUID, now time.Time) {
	if projectID == nil || *projectID == uuid.Nil {
		t.projectID = nil
	} else {
		id := *projectID
		t.projectID = &id
	}
	t.Touch(now)
}

// SetDueDate updates the due date. A nil value clears it.
func (t *Task) SetDueDate(dueDate *time.Time, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	if dueDate == nil {
		t.dueDate = nil
	} else {
		d := dueDate.UTC()
		t.dueDate = &d
	}
	t.Touch(now)
	return nil
}

// SetDuration updates the estimate.
func (t *Task) SetDuration(duration vo.Duration, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	if duration.Minutes() <= 0 {
		return vo.ErrInvalidDuration
	}
	t.duration = duration
	t.Touch(now)
	return nil
}

// SetTags replaces the tag set. Tags are lower-cased and de-duplicated.
func (t *Task) SetTags(tags []string, now time.Time) {
	t.tags = normalizeTags(tags)
	t.Touch(now)
}

// AddTag adds a tag if missing.
func (t *Task) AddTag(tag string, now time.Time) {
	t.tags = normalizeTags(append(t.tags, tag))
	t.Touch(now)
}

// RemoveTag removes a tag if present.
func (t *Task) RemoveTag(tag string, now time.Time) {
	tag = normalizeTag(tag)
	t.tags = slices.DeleteFunc(t.tags, func(s string) bool { return s == tag })
	t.Touch(now)
}

// SetDependencies replaces the dependency list.
func (t *Task) SetDependencies(deps []uuid.UUID, now time.Time) error {
	cleaned := make([]uuid.UUID, 0, len(deps))
	for _, dep := range deps {
		if dep == t.ID() {
			return ErrSelfDependency
		}
		if dep != uuid.Nil && !slices.Contains(cleaned, dep) {
			cleaned = append(cleaned, dep)
		}
	}
	t.dependencies = cleaned
	t.Touch(now)
	return nil
}

// SetMemoryLinks replaces the memory link list.
func (t *Task) SetMemoryLinks(links []string, now time.Time) {
	cleaned := make([]string, 0, len(links))
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" && !slices.Contains(cleaned, link) {
			cleaned = append(cleaned, link)
		}
	}
	t.memoryLinks = cleaned
	t.Touch(now)
}

// SetWorkMode updates the work mode.
func (t *Task) SetWorkMode(mode vo.WorkMode, now time.Time) {
	t.workMode = mode
	t.Touch(now)
}

// SetCognitiveLoad updates the cognitive load.
func (t *Task) SetCognitiveLoad(load vo.CognitiveLoad, now time.Time) {
	t.cognitiveLoad = load
	t.Touch(now)
}

// SetStatus moves the task between todo, in-progress and blocked.
// Completion goes through Complete.
func (t *Task) SetStatus(status Status, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	if status == StatusCompleted {
		return t.Complete(now)
	}
	t.status = status
	t.Touch(now)
	return nil
}

// MarkUpdated records that the named fields changed.
func (t *Task) MarkUpdated(fields []string, now time.Time) {
	if len(fields) == 0 {
		return
	}
	t.AddDomainEvent(NewTaskUpdated(t.ID(), fields, now))
}

// Complete marks the task completed.
func (t *Task) Complete(now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}

	done := now.UTC()
	t.status = StatusCompleted
	t.completedAt = &done
	t.Touch(now)

	t.AddDomainEvent(NewTaskCompleted(t.ID(), now))

	return nil
}

// LockPriority pins the score. Scores outside [1,100] are clamped.
func (t *Task) LockPriority(score int, reason, lockedBy string, now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskCompleted
	}
	score = max(MinLockedScore, min(score, MaxLockedScore))
	t.lock = &LockedPriority{
		Score:    score,
		Reason:   strings.TrimSpace(reason),
		LockedAt: now.UTC(),
		LockedBy: lockedBy,
	}
	t.Touch(now)

	t.AddDomainEvent(NewPriorityLocked(t.ID(), score, t.lock.Reason, lockedBy, now))

	return nil
}

// UnlockPriority removes the override.
func (t *Task) UnlockPriority(now time.Time) error {
	if t.lock == nil {
		return ErrPriorityNotLocked
	}
	t.lock = nil
	t.Touch(now)

	t.AddDomainEvent(NewPriorityUnlocked(t.ID(), now))

	return nil
}

// ApplyPriority stores a computed priority. Only the scheduler calls it.
func (t *Task) ApplyPriority(priority vo.Priority) {
	t.priority = priority
}

// RescheduleDue moves an overdue task to a later due date, swapping the
// overdue tag for rescheduled. A due date is never moved earlier.
func (t *Task) RescheduleDue(newDue time.Time, tier string, now time.Time) {
	previous := t.dueDate
	due := newDue.UTC()
	if previous != nil && previous.After(due) {
		due = *previous
	}
	t.dueDate = &due
	t.RemoveTag(TagOverdue, now)
	t.AddTag(TagRescheduled, now)

	t.AddDomainEvent(NewTaskRescheduled(t.ID(), previous, due, tier, now))
}

// Clone returns a deep copy without pending domain events.
func (t *Task) Clone() *Task {
	return FromSnapshot(t.Snapshot())
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = normalizeTag(tag); tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
