package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type txKey struct{}

type storeFixture struct {
	repo      *mockTaskRepo
	outbox    *outbox.InMemoryRepository
	uow       *mockUnitOfWork
	publisher *recordingPublisher
	txCtx     context.Context
}

func newStoreFixture(ctx context.Context) (*storeFixture, TaskStore) {
	f := &storeFixture{
		repo:      new(mockTaskRepo),
		outbox:    outbox.NewInMemoryRepository(),
		uow:       new(mockUnitOfWork),
		publisher: &recordingPublisher{},
		txCtx:     context.WithValue(ctx, txKey{}, "tx"),
	}
	store := TaskStore{
		Tasks:      f.repo,
		Outbox:     f.outbox,
		UnitOfWork: f.uow,
		Publisher:  f.publisher,
		Clock:      domain.FixedClock{At: fixedNow},
	}
	return f, store
}

func TestCreateTaskHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("saves task and outbox then publishes locally", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		handler := NewCreateTaskHandler(store, nil)

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("Save", f.txCtx, mock.AnythingOfType("*task.Task")).Return(nil)
		f.uow.On("Commit", f.txCtx).Return(nil)

		due := fixedNow.Add(48 * time.Hour)
		result, err := handler.Handle(ctx, CreateTaskCommand{
			UserID:           userID,
			Title:            "Write quarterly report",
			EstimatedMinutes: 90,
			DueDate:          &due,
			Tags:             []string{"Important", "important"},
			WorkMode:         "deep-work",
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.TaskID)
		assert.Equal(t, []string{task.RoutingKeyCreated}, f.outbox.RoutingKeys())
		assert.Equal(t, []string{task.RoutingKeyCreated}, f.publisher.Keys())

		saved := f.repo.Calls[0].Arguments.Get(1).(*task.Task)
		assert.Equal(t, []string{"important"}, saved.Tags())
		assert.True(t, saved.WorkMode().IsDeepWork())
		assert.Equal(t, userID, f.outbox.Messages()[0].EventMetadata().UserID)

		f.repo.AssertExpectations(t)
		f.uow.AssertExpectations(t)
	})

	t.Run("rejects empty title before touching storage", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		handler := NewCreateTaskHandler(store, nil)

		_, err := handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "  ", EstimatedMinutes: 30})

		assert.ErrorIs(t, err, task.ErrEmptyTitle)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("rejects unknown work mode", func(t *testing.T) {
		_, store := newStoreFixture(ctx)
		handler := NewCreateTaskHandler(store, nil)

		_, err := handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "x", EstimatedMinutes: 30, WorkMode: "napping"})

		assert.Error(t, err)
	})

	t.Run("rolls back and skips publishing when save fails", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		handler := NewCreateTaskHandler(store, nil)

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("Save", f.txCtx, mock.Anything).Return(errors.New("disk full"))
		f.uow.On("Rollback", f.txCtx).Return(nil)

		_, err := handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "x", EstimatedMinutes: 30})

		require.Error(t, err)
		assert.Empty(t, f.outbox.Messages())
		assert.Empty(t, f.publisher.Keys())
		f.uow.AssertExpectations(t)
	})

	t.Run("local bus failure does not fail the command", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		f.publisher.err = errors.New("subscriber exploded")
		handler := NewCreateTaskHandler(store, nil)

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("Save", f.txCtx, mock.Anything).Return(nil)
		f.uow.On("Commit", f.txCtx).Return(nil)

		_, err := handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "x", EstimatedMinutes: 30})

		assert.NoError(t, err)
		assert.Len(t, f.outbox.Messages(), 1)
	})

	t.Run("checks project ownership", func(t *testing.T) {
		_, store := newStoreFixture(ctx)
		projects := new(mockProjectRepo)
		handler := NewCreateTaskHandler(store, projects)

		other, err := projectDomain.NewProject(uuid.New(), "Someone else's", projectDomain.TypeStandard, fixedNow)
		require.NoError(t, err)
		id := other.ID()
		projects.On("FindByID", ctx, id).Return(other, nil)

		_, err = handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "x", EstimatedMinutes: 30, ProjectID: &id})

		assert.ErrorIs(t, err, projectDomain.ErrProjectNotFound)
	})

	t.Run("links an owned project", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		projects := new(mockProjectRepo)
		handler := NewCreateTaskHandler(store, projects)

		p, err := projectDomain.NewProject(userID, "Launch", projectDomain.TypeSprint, fixedNow)
		require.NoError(t, err)
		id := p.ID()
		projects.On("FindByID", ctx, id).Return(p, nil)
		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("Save", f.txCtx, mock.Anything).Return(nil)
		f.uow.On("Commit", f.txCtx).Return(nil)

		_, err = handler.Handle(ctx, CreateTaskCommand{UserID: userID, Title: "x", EstimatedMinutes: 30, ProjectID: &id})

		require.NoError(t, err)
		saved := f.repo.Calls[0].Arguments.Get(1).(*task.Task)
		require.NotNil(t, saved.ProjectID())
		assert.Equal(t, id, *saved.ProjectID())
	})
}
