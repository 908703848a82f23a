package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	UserID           uuid.UUID
	Title            string
	Description      string
	EstimatedMinutes int
	DueDate          *time.Time
	ProjectID        *uuid.UUID
	Tags             []string
	Dependencies     []uuid.UUID
	MemoryLinks      []string
	WorkMode         string
	CognitiveLoad    string
	CorrelationID    uuid.UUID
}

// CreateTaskResult contains the result of creating a task.
type CreateTaskResult struct {
	TaskID uuid.UUID
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	store    TaskStore
	projects projectDomain.Repository
}

// NewCreateTaskHandler creates a new CreateTaskHandler. projects may be nil,
// in which case project IDs are stored unchecked.
func NewCreateTaskHandler(store TaskStore, projects projectDomain.Repository) *CreateTaskHandler {
	return &CreateTaskHandler{store: store, projects: projects}
}

// Handle executes the CreateTaskCommand.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	now := h.store.clock().Now()

	t, err := h.build(ctx, cmd, now)
	if err != nil {
		return nil, err
	}

	var events []domain.DomainEvent
	err = sharedApplication.WithUnitOfWork(ctx, h.store.UnitOfWork, func(txCtx context.Context) error {
		events, err = h.store.persist(txCtx, t, cmd.UserID, cmd.CorrelationID)
		return err
	})
	if err != nil {
		return nil, err
	}

	h.store.publish(ctx, events)
	h.store.logger().Info("task created", "task_id", t.ID(), "estimated_minutes", t.EstimatedMinutes())

	return &CreateTaskResult{TaskID: t.ID()}, nil
}

func (h *CreateTaskHandler) build(ctx context.Context, cmd CreateTaskCommand, now time.Time) (*task.Task, error) {
	duration, err := vo.NewDuration(cmd.EstimatedMinutes)
	if err != nil {
		return nil, err
	}
	mode, err := vo.ParseWorkMode(cmd.WorkMode)
	if err != nil {
		return nil, err
	}
	load, err := vo.ParseCognitiveLoad(cmd.CognitiveLoad)
	if err != nil {
		return nil, err
	}

	t, err := task.NewTask(cmd.UserID, cmd.Title, duration, now)
	if err != nil {
		return nil, err
	}
	if err := t.SetDescription(cmd.Description, now); err != nil {
		return nil, err
	}
	if err := t.SetDueDate(cmd.DueDate, now); err != nil {
		return nil, err
	}
	if err := t.SetDependencies(cmd.Dependencies, now); err != nil {
		return nil, err
	}
	t.SetTags(cmd.Tags, now)
	t.SetMemoryLinks(cmd.MemoryLinks, now)
	t.SetWorkMode(mode, now)
	t.SetCognitiveLoad(load, now)

	if cmd.ProjectID != nil {
		if h.projects != nil {
			project, err := h.projects.FindByID(ctx, *cmd.ProjectID)
			if err != nil {
				return nil, fmt.Errorf("project %s: %w", cmd.ProjectID, err)
			}
			if project.UserID() != cmd.UserID {
				return nil, projectDomain.ErrProjectNotFound
			}
		}
		t.SetProject(cmd.ProjectID, now)
	}
	return t, nil
}
