package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// ChangeProjectStatusCommand moves a project between active, on-hold and completed.
type ChangeProjectStatusCommand struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
	Status    string
}

// ChangeProjectStatusHandler handles ChangeProjectStatusCommand. Only
// active projects boost their tasks, so the next recompute picks up the change.
type ChangeProjectStatusHandler struct {
	projectRepo domain.Repository
	uow         sharedApplication.UnitOfWork
	clock       sharedDomain.Clock
}

// NewChangeProjectStatusHandler creates a new ChangeProjectStatusHandler.
func NewChangeProjectStatusHandler(
	projectRepo domain.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
) *ChangeProjectStatusHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &ChangeProjectStatusHandler{projectRepo: projectRepo, uow: uow, clock: clock}
}

func (h *ChangeProjectStatusHandler) Handle(ctx context.Context, cmd ChangeProjectStatusCommand) error {
	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return err
	}

	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		project, err := h.projectRepo.FindByID(txCtx, cmd.ProjectID)
		if err != nil {
			return err
		}
		if project.UserID() != cmd.UserID {
			return domain.ErrProjectNotFound
		}
		project.ChangeStatus(status, h.clock.Now())
		return h.projectRepo.Save(txCtx, project)
	})
}
