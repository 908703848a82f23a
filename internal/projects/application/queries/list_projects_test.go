package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProjectRepo struct {
	projects []*domain.Project
}

func (s stubProjectRepo) Save(context.Context, *domain.Project) error { return nil }

func (s stubProjectRepo) FindByID(context.Context, uuid.UUID) (*domain.Project, error) {
	return nil, domain.ErrProjectNotFound
}

func (s stubProjectRepo) FindByUser(context.Context, uuid.UUID) ([]*domain.Project, error) {
	return s.projects, nil
}

func TestListProjectsHandler_Handle(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	active, err := domain.NewProject(userID, "Active", domain.TypeSprint, now)
	require.NoError(t, err)
	done, err := domain.NewProject(userID, "Done", domain.TypeStandard, now)
	require.NoError(t, err)
	done.ChangeStatus(domain.StatusCompleted, now)

	handler := NewListProjectsHandler(stubProjectRepo{projects: []*domain.Project{active, done}})

	all, err := handler.Handle(context.Background(), ListProjectsQuery{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := handler.Handle(context.Background(), ListProjectsQuery{UserID: userID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "sprint", onlyActive[0].Type)
}
