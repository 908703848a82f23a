package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"
)

type taskCreateInput struct {
	Title         string   `json:"title" jsonschema:"required"`
	Description   string   `json:"description,omitempty"`
	Minutes       int      `json:"minutes,omitempty"`
	DueDate       string   `json:"due_date,omitempty"` // YYYY-MM-DD or "YYYY-MM-DD HH:MM"
	ProjectID     string   `json:"project_id,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	DependsOn     []string `json:"depends_on,omitempty"`
	MemoryLinks   []string `json:"memory_links,omitempty"`
	WorkMode      string   `json:"work_mode,omitempty"`
	CognitiveLoad string   `json:"cognitive_load,omitempty"`
}

type taskListInput struct {
	Status   string `json:"status,omitempty"`
	Quadrant string `json:"quadrant,omitempty"`
	Overdue  bool   `json:"overdue,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type taskLockInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
	Score  int    `json:"score,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type taskUpdateInput struct {
	TaskID        string   `json:"task_id" jsonschema:"required"`
	Title         *string  `json:"title,omitempty"`
	Minutes       *int     `json:"minutes,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	ClearDueDate  bool     `json:"clear_due_date,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Status        *string  `json:"status,omitempty"`
	WorkMode      *string  `json:"work_mode,omitempty"`
	CognitiveLoad *string  `json:"cognitive_load,omitempty"`
}

func registerTaskTools(srv *mcp.Server, ts toolset) {
	srv.Tool("task.create").
		Description("Create a task. The schedule is rebuilt to make room for it.").
		Handler(ts.createTask)

	srv.Tool("task.list").
		Description("List tasks ordered by priority score. Status is active (default), all, todo, in-progress, completed or blocked.").
		Handler(ts.listTasks)

	srv.Tool("task.show").
		Description("Show one task by ID or unique ID prefix").
		Handler(ts.showTask)

	srv.Tool("task.lock").
		Description("Pin a task's priority score so recomputes leave it alone. Without a score the current one is kept.").
		Handler(ts.lockTask)

	srv.Tool("task.unlock").
		Description("Release a pinned priority score").
		Handler(ts.unlockTask)

	srv.Tool("task.complete").
		Description("Mark a task as complete and free its scheduled blocks").
		Handler(ts.completeTask)

	srv.Tool("task.update").
		Description("Change a task's title, estimate, due date, tags, status, work mode or cognitive load").
		Handler(ts.updateTask)
}

func (ts toolset) createTask(ctx context.Context, input taskCreateInput) (*queries.TaskDTO, error) {
	app := ts.app
	if app.CreateTaskHandler == nil || app.GetTaskHandler == nil {
		return nil, fmt.Errorf("task creation %w", errNoDatabase)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.New("title is required")
	}

	cmd := commands.CreateTaskCommand{
		UserID:           app.CurrentUserID,
		Title:            input.Title,
		Description:      input.Description,
		EstimatedMinutes: input.Minutes,
		Tags:             input.Tags,
		MemoryLinks:      input.MemoryLinks,
		WorkMode:         input.WorkMode,
		CognitiveLoad:    input.CognitiveLoad,
		CorrelationID:    uuid.New(),
	}
	if input.DueDate != "" {
		due, err := app.ParseDue(input.DueDate)
		if err != nil {
			return nil, err
		}
		cmd.DueDate = due
	}
	if input.ProjectID != "" {
		projectID, err := parseUUID(input.ProjectID)
		if err != nil {
			return nil, err
		}
		cmd.ProjectID = &projectID
	}
	for _, dep := range input.DependsOn {
		id, err := parseUUID(dep)
		if err != nil {
			return nil, err
		}
		cmd.Dependencies = append(cmd.Dependencies, id)
	}

	result, err := app.CreateTaskHandler.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{UserID: app.CurrentUserID, TaskID: result.TaskID})
}

func (ts toolset) listTasks(ctx context.Context, input taskListInput) ([]queries.TaskDTO, error) {
	app := ts.app
	if app.ListTasksHandler == nil {
		return nil, fmt.Errorf("task listing %w", errNoDatabase)
	}
	return app.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{
		UserID:   app.CurrentUserID,
		Status:   input.Status,
		Quadrant: input.Quadrant,
		Overdue:  input.Overdue,
		Limit:    input.Limit,
	})
}

func (ts toolset) showTask(ctx context.Context, input taskIDInput) (*queries.TaskDTO, error) {
	app := ts.app
	if app.GetTaskHandler == nil {
		return nil, fmt.Errorf("task lookup %w", errNoDatabase)
	}
	taskID, err := ts.resolveTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	return app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{UserID: app.CurrentUserID, TaskID: taskID})
}

func (ts toolset) lockTask(ctx context.Context, input taskLockInput) (map[string]any, error) {
	app := ts.app
	if app.LockPriorityHandler == nil {
		return nil, fmt.Errorf("priority lock %w", errNoDatabase)
	}
	taskID, err := ts.resolveTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	score := input.Score
	if score == 0 {
		current, err := app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{UserID: app.CurrentUserID, TaskID: taskID})
		if err != nil {
			return nil, err
		}
		score = current.Score
	}

	locked, err := app.LockPriorityHandler.Handle(ctx, commands.LockPriorityCommand{
		UserID:        app.CurrentUserID,
		TaskID:        taskID,
		Score:         score,
		Reason:        input.Reason,
		LockedBy:      "mcp",
		CorrelationID: uuid.New(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task_id": taskID, "locked": true, "score": locked}, nil
}

func (ts toolset) unlockTask(ctx context.Context, input taskIDInput) (map[string]any, error) {
	app := ts.app
	if app.UnlockPriorityHandler == nil {
		return nil, fmt.Errorf("priority unlock %w", errNoDatabase)
	}
	taskID, err := ts.resolveTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := app.UnlockPriorityHandler.Handle(ctx, commands.UnlockPriorityCommand{
		UserID:        app.CurrentUserID,
		TaskID:        taskID,
		CorrelationID: uuid.New(),
	}); err != nil {
		return nil, err
	}
	return map[string]any{"task_id": taskID, "locked": false}, nil
}

func (ts toolset) completeTask(ctx context.Context, input taskIDInput) (map[string]any, error) {
	app := ts.app
	if app.CompleteTaskHandler == nil {
		return nil, fmt.Errorf("task completion %w", errNoDatabase)
	}
	taskID, err := ts.resolveTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{
		UserID:        app.CurrentUserID,
		TaskID:        taskID,
		CorrelationID: uuid.New(),
	}); err != nil {
		return nil, err
	}
	return map[string]any{"task_id": taskID, "completed": true}, nil
}

func (ts toolset) updateTask(ctx context.Context, input taskUpdateInput) (*queries.TaskDTO, error) {
	app := ts.app
	if app.UpdateTaskHandler == nil || app.GetTaskHandler == nil {
		return nil, fmt.Errorf("task update %w", errNoDatabase)
	}
	taskID, err := ts.resolveTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if input.DueDate != "" && input.ClearDueDate {
		return nil, errors.New("due_date and clear_due_date are mutually exclusive")
	}

	cmd := commands.UpdateTaskCommand{
		UserID:           app.CurrentUserID,
		TaskID:           taskID,
		Title:            input.Title,
		EstimatedMinutes: input.Minutes,
		ClearDueDate:     input.ClearDueDate,
		Status:           input.Status,
		WorkMode:         input.WorkMode,
		CognitiveLoad:    input.CognitiveLoad,
		CorrelationID:    uuid.New(),
	}
	if input.DueDate != "" {
		due, err := app.ParseDue(input.DueDate)
		if err != nil {
			return nil, err
		}
		cmd.DueDate = due
	}
	if input.Tags != nil {
		tags := input.Tags
		cmd.Tags = &tags
	}

	if err := app.UpdateTaskHandler.Handle(ctx, cmd); err != nil {
		return nil, err
	}
	return app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{UserID: app.CurrentUserID, TaskID: taskID})
}

func (ts toolset) resolveTask(ctx context.Context, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, errors.New("task_id is required")
	}
	return ts.app.ResolveTaskID(ctx, value)
}
