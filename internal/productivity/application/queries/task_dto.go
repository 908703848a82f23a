package queries

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// TaskDTO is a data transfer object for tasks.
type TaskDTO struct {
	ID               uuid.UUID  `json:"id"`
	ProjectID        *uuid.UUID `json:"project_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	Score            int        `json:"score"`
	Urgency          int        `json:"urgency"`
	Impact           int        `json:"impact"`
	MemoryContext    int        `json:"memory_context"`
	Quadrant         string     `json:"quadrant,omitempty"`
	Locked           bool       `json:"locked"`
	LockReason       string     `json:"lock_reason,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Overdue          bool       `json:"overdue"`
	Tags             []string   `json:"tags,omitempty"`
	WorkMode         string     `json:"work_mode"`
	CognitiveLoad    string     `json:"cognitive_load"`
	Dependencies     int        `json:"dependencies"`
	MemoryLinks      int        `json:"memory_links"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToTaskDTO converts a task into its DTO as seen at now.
func ToTaskDTO(t *task.Task, now time.Time) TaskDTO {
	p := t.Priority()
	dto := TaskDTO{
		ID:               t.ID(),
		ProjectID:        t.ProjectID(),
		Title:            t.Title(),
		Description:      t.Description(),
		Status:           t.Status().String(),
		Score:            p.Score(),
		Urgency:          p.Urgency(),
		Impact:           p.Impact(),
		MemoryContext:    p.MemoryContext(),
		Quadrant:         p.Quadrant().String(),
		Locked:           t.IsPriorityLocked(),
		EstimatedMinutes: t.EstimatedMinutes(),
		DueDate:          t.DueDate(),
		Overdue:          t.IsOverdue(now),
		Tags:             t.Tags(),
		WorkMode:         t.WorkMode().String(),
		CognitiveLoad:    t.CognitiveLoad().String(),
		Dependencies:     len(t.Dependencies()),
		MemoryLinks:      len(t.MemoryLinks()),
		CompletedAt:      t.CompletedAt(),
		CreatedAt:        t.CreatedAt(),
	}
	if lock := t.LockedPriority(); lock != nil {
		dto.LockReason = lock.Reason
	}
	return dto
}
