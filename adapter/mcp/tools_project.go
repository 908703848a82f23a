package mcp

import (
	"context"
	"fmt"

	projectCommands "github.com/felixgeelhaar/cadence/internal/projects/application/commands"
	projectQueries "github.com/felixgeelhaar/cadence/internal/projects/application/queries"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type projectCreateInput struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // standard or sprint
}

type projectListInput struct {
	ActiveOnly bool `json:"active_only,omitempty"`
}

type projectStatusInput struct {
	ProjectID string `json:"project_id" jsonschema:"required"`
	Status    string `json:"status" jsonschema:"required"` // active, on-hold or completed
}

func registerProjectTools(srv *mcp.Server, ts toolset) {
	srv.Tool("project.create").
		Description("Create a project. Tasks of active projects get a priority boost; sprint projects get more.").
		Handler(ts.createProject)

	srv.Tool("project.list").
		Description("List projects").
		Handler(ts.listProjects)

	srv.Tool("project.status").
		Description("Change a project's status and rebuild the schedule").
		Handler(ts.changeProjectStatus)
}

func (ts toolset) createProject(ctx context.Context, input projectCreateInput) (*projectCommands.CreateProjectResult, error) {
	app := ts.app
	if app.CreateProjectHandler == nil {
		return nil, fmt.Errorf("project creation %w", errNoDatabase)
	}
	projectType := input.Type
	if projectType == "" {
		projectType = "standard"
	}
	return app.CreateProjectHandler.Handle(ctx, projectCommands.CreateProjectCommand{
		UserID:      app.CurrentUserID,
		Name:        input.Name,
		Description: input.Description,
		Type:        projectType,
	})
}

func (ts toolset) listProjects(ctx context.Context, input projectListInput) ([]projectQueries.ProjectDTO, error) {
	app := ts.app
	if app.ListProjectsHandler == nil {
		return nil, fmt.Errorf("project listing %w", errNoDatabase)
	}
	return app.ListProjectsHandler.Handle(ctx, projectQueries.ListProjectsQuery{
		UserID:     app.CurrentUserID,
		ActiveOnly: input.ActiveOnly,
	})
}

func (ts toolset) changeProjectStatus(ctx context.Context, input projectStatusInput) (map[string]any, error) {
	app := ts.app
	if app.ChangeProjectStatusHandler == nil {
		return nil, fmt.Errorf("project update %w", errNoDatabase)
	}
	projectID, err := parseUUID(input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := app.ChangeProjectStatusHandler.Handle(ctx, projectCommands.ChangeProjectStatusCommand{
		UserID:    app.CurrentUserID,
		ProjectID: projectID,
		Status:    input.Status,
	}); err != nil {
		return nil, err
	}
	if app.RecomputeHandler != nil {
		if err := app.RecomputeHandler.Submit(ctx, app.CurrentUserID, schedulingDomain.Rebuild{Time: app.Now()}); err != nil {
			return nil, err
		}
	}
	return map[string]any{"project_id": projectID, "status": input.Status}, nil
}
