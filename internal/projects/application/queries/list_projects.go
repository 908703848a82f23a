package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/google/uuid"
)

// ProjectDTO is a data transfer object for projects.
type ProjectDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListProjectsQuery contains the parameters for listing projects.
type ListProjectsQuery struct {
	UserID     uuid.UUID
	ActiveOnly bool
}

// ListProjectsHandler handles ListProjectsQuery.
type ListProjectsHandler struct {
	projectRepo domain.Repository
}

// NewListProjectsHandler creates a new ListProjectsHandler.
func NewListProjectsHandler(projectRepo domain.Repository) *ListProjectsHandler {
	return &ListProjectsHandler{projectRepo: projectRepo}
}

func (h *ListProjectsHandler) Handle(ctx context.Context, query ListProjectsQuery) ([]ProjectDTO, error) {
	projects, err := h.projectRepo.FindByUser(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		if query.ActiveOnly && !p.IsActive() {
			continue
		}
		dtos = append(dtos, ProjectDTO{
			ID:          p.ID(),
			Name:        p.Name(),
			Description: p.Description(),
			Status:      p.Status().String(),
			Type:        p.Type().String(),
			CreatedAt:   p.CreatedAt(),
		})
	}
	return dtos, nil
}
