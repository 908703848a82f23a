package commands

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func existingTask(t *testing.T, userID uuid.UUID) *task.Task {
	t.Helper()
	d, err := vo.NewDuration(60)
	require.NoError(t, err)
	tk, err := task.NewTask(userID, "Existing", d, fixedNow)
	require.NoError(t, err)
	tk.ClearDomainEvents()
	return tk
}

func TestLockPriorityHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("clamps and stores the score", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		tk := existingTask(t, userID)

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("FindByID", f.txCtx, tk.ID()).Return(tk, nil)
		f.repo.On("Save", f.txCtx, tk).Return(nil)
		f.uow.On("Commit", f.txCtx).Return(nil)

		score, err := NewLockPriorityHandler(store).Handle(ctx, LockPriorityCommand{
			UserID: userID,
			TaskID: tk.ID(),
			Score:  250,
			Reason: "board meeting",
		})

		require.NoError(t, err)
		assert.Equal(t, 100, score)
		assert.Equal(t, userID.String(), tk.LockedPriority().LockedBy)
		assert.Equal(t, []string{task.RoutingKeyPriorityLocked}, f.publisher.Keys())
	})

	t.Run("hides tasks owned by another user", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		tk := existingTask(t, uuid.New())

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("FindByID", f.txCtx, tk.ID()).Return(tk, nil)
		f.uow.On("Rollback", f.txCtx).Return(nil)

		_, err := NewLockPriorityHandler(store).Handle(ctx, LockPriorityCommand{UserID: userID, TaskID: tk.ID(), Score: 50})

		assert.ErrorIs(t, err, task.ErrTaskNotFound)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestUnlockPriorityHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("unlocks a locked task", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		tk := existingTask(t, userID)
		require.NoError(t, tk.LockPriority(80, "", "me", fixedNow))
		tk.ClearDomainEvents()

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("FindByID", f.txCtx, tk.ID()).Return(tk, nil)
		f.repo.On("Save", f.txCtx, tk).Return(nil)
		f.uow.On("Commit", f.txCtx).Return(nil)

		err := NewUnlockPriorityHandler(store).Handle(ctx, UnlockPriorityCommand{UserID: userID, TaskID: tk.ID()})

		require.NoError(t, err)
		assert.False(t, tk.IsPriorityLocked())
		assert.Equal(t, []string{task.RoutingKeyPriorityUnlocked}, f.outbox.RoutingKeys())
	})

	t.Run("fails when nothing is locked", func(t *testing.T) {
		f, store := newStoreFixture(ctx)
		tk := existingTask(t, userID)

		f.uow.On("Begin", ctx).Return(f.txCtx, nil)
		f.repo.On("FindByID", f.txCtx, tk.ID()).Return(tk, nil)
		f.uow.On("Rollback", f.txCtx).Return(nil)

		err := NewUnlockPriorityHandler(store).Handle(ctx, UnlockPriorityCommand{UserID: userID, TaskID: tk.ID()})

		assert.ErrorIs(t, err, task.ErrPriorityNotLocked)
	})
}
