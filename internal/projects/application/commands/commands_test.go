package commands

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Save(ctx context.Context, p *domain.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *mockProjectRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Project), args.Error(1)
}

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestCreateProjectHandler_Handle(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProjectRepo)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Project")).Return(nil)
	handler := NewCreateProjectHandler(repo, sharedApplication.NoopUnitOfWork{}, sharedDomain.FixedClock{At: now})

	result, err := handler.Handle(ctx, CreateProjectCommand{UserID: uuid.New(), Name: "Launch", Type: "sprint", Description: "Q2"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.ProjectID)

	saved := repo.Calls[0].Arguments.Get(1).(*domain.Project)
	assert.True(t, saved.IsSprint())
	assert.Equal(t, "Q2", saved.Description())

	_, err = handler.Handle(ctx, CreateProjectCommand{UserID: uuid.New(), Name: "x", Type: "epic"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = handler.Handle(ctx, CreateProjectCommand{UserID: uuid.New(), Name: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestChangeProjectStatusHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	project, err := domain.NewProject(userID, "Launch", domain.TypeStandard, now)
	require.NoError(t, err)

	repo := new(mockProjectRepo)
	repo.On("FindByID", ctx, project.ID()).Return(project, nil)
	repo.On("Save", ctx, project).Return(nil)
	handler := NewChangeProjectStatusHandler(repo, sharedApplication.NoopUnitOfWork{}, sharedDomain.FixedClock{At: now.Add(time.Hour)})

	require.NoError(t, handler.Handle(ctx, ChangeProjectStatusCommand{UserID: userID, ProjectID: project.ID(), Status: "on-hold"}))
	assert.False(t, project.IsActive())
	assert.Equal(t, now.Add(time.Hour), project.UpdatedAt())

	err = handler.Handle(ctx, ChangeProjectStatusCommand{UserID: uuid.New(), ProjectID: project.ID(), Status: "active"})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	err = handler.Handle(ctx, ChangeProjectStatusCommand{UserID: userID, ProjectID: project.ID(), Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
