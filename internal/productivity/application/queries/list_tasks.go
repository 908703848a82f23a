package queries

import (
	"cmp"
	"context"
	"slices"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// ListTasksQuery contains the parameters for listing tasks.
type ListTasksQuery struct {
	UserID   uuid.UUID
	Status   string // "" or "active" for todo and in-progress, "all", or a status name
	Quadrant string
	Overdue  bool
	Limit    int
}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
	clock    domain.Clock
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository, clock domain.Clock) *ListTasksHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &ListTasksHandler{taskRepo: taskRepo, clock: clock}
}

// Handle returns tasks ordered by score, highest first. Ties go to the
// earlier due date, then the older task.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	filter, err := statusFilter(query.Status)
	if err != nil {
		return nil, err
	}

	tasks, err := h.taskRepo.FindByUser(ctx, query.UserID, filter)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		if query.Overdue && !t.IsOverdue(now) {
			continue
		}
		if query.Quadrant != "" && t.Priority().Quadrant().String() != query.Quadrant {
			continue
		}
		dtos = append(dtos, ToTaskDTO(t, now))
	}

	slices.SortStableFunc(dtos, compareTasks)

	if query.Limit > 0 && len(dtos) > query.Limit {
		dtos = dtos[:query.Limit]
	}
	return dtos, nil
}

func statusFilter(status string) (task.Filter, error) {
	switch status {
	case "", "active":
		return task.Filter{Statuses: []task.Status{task.StatusTodo, task.StatusInProgress}}, nil
	case "all":
		return task.Filter{}, nil
	}
	s, err := task.ParseStatus(status)
	if err != nil {
		return task.Filter{}, err
	}
	return task.Filter{Statuses: []task.Status{s}}, nil
}

func compareTasks(a, b TaskDTO) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	switch {
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
