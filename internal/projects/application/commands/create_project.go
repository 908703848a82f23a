package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// CreateProjectCommand contains the data needed to create a project.
type CreateProjectCommand struct {
	UserID      uuid.UUID
	Name        string
	Description string
	Type        string
}

// CreateProjectResult contains the result of creating a project.
type CreateProjectResult struct {
	ProjectID uuid.UUID
}

// CreateProjectHandler handles the CreateProjectCommand.
type CreateProjectHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
	clock       sharedDomain.Clock
}

// NewCreateProjectHandler creates a new CreateProjectHandler.
func NewCreateProjectHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
) *CreateProjectHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &CreateProjectHandler{
		projectRepo: projectRepo,
		uow:         uow,
		clock:       clock,
	}
}

// Handle executes the CreateProjectCommand.
func (h *CreateProjectHandler) Handle(ctx context.Context, cmd CreateProjectCommand) (*CreateProjectResult, error) {
	kind, err := domain.ParseType(cmd.Type)
	if err != nil {
		return nil, err
	}
	now := h.clock.Now()

	project, err := domain.NewProject(cmd.UserID, cmd.Name, kind, now)
	if err != nil {
		return nil, err
	}
	if cmd.Description != "" {
		project.SetDescription(cmd.Description, now)
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.projectRepo.Save(txCtx, project)
	})
	if err != nil {
		return nil, err
	}

	return &CreateProjectResult{ProjectID: project.ID()}, nil
}
