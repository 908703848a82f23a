package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUnitOfWork struct {
	begun      int
	committed  int
	rolledBack int
}

func (u *recordingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.begun++
	return ctx, nil
}

func (u *recordingUnitOfWork) Commit(context.Context) error {
	u.committed++
	return nil
}

func (u *recordingUnitOfWork) Rollback(context.Context) error {
	u.rolledBack++
	return nil
}

func TestWithUnitOfWork(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		uow := &recordingUnitOfWork{}
		err := WithUnitOfWork(context.Background(), uow, func(context.Context) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 1, uow.committed)
		assert.Equal(t, 0, uow.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		uow := &recordingUnitOfWork{}
		boom := errors.New("boom")
		err := WithUnitOfWork(context.Background(), uow, func(context.Context) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, uow.committed)
		assert.Equal(t, 1, uow.rolledBack)
	})
}

func TestWithUnitOfWorkResult(t *testing.T) {
	uow := &recordingUnitOfWork{}
	got, err := WithUnitOfWorkResult(context.Background(), uow, func(context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, uow.begun)
}

func TestNewEventMetadata_KeepsCorrelation(t *testing.T) {
	userID := uuid.New()
	first := NewEventMetadata(userID, uuid.Nil)
	assert.NotEqual(t, uuid.Nil, first.CorrelationID)

	second := NewEventMetadata(userID, first.CorrelationID)
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
	assert.NotEqual(t, first.CausationID, second.CausationID)
}
