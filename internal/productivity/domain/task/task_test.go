package task_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTask(t *testing.T, minutes int) *task.Task {
	t.Helper()
	d, err := vo.NewDuration(minutes)
	require.NoError(t, err)
	tk, err := task.NewTask(uuid.New(), "Review budget", d, now)
	require.NoError(t, err)
	return tk
}

func routingKeys(tk *task.Task) []string {
	var keys []string
	for _, e := range tk.DomainEvents() {
		keys = append(keys, e.RoutingKey())
	}
	return keys
}

func TestNewTask(t *testing.T) {
	tk := newTask(t, 45)

	assert.Equal(t, task.StatusTodo, tk.Status())
	assert.Equal(t, 45, tk.EstimatedMinutes())
	assert.Equal(t, vo.WorkModeAdmin, tk.WorkMode())
	assert.Equal(t, vo.CognitiveLoadModerate, tk.CognitiveLoad())
	assert.True(t, tk.Priority().IsZero())
	assert.Equal(t, []string{task.RoutingKeyCreated}, routingKeys(tk))

	d, _ := vo.NewDuration(10)
	_, err := task.NewTask(uuid.New(), "   ", d, now)
	assert.ErrorIs(t, err, task.ErrEmptyTitle)
}

func TestTask_TagsAreNormalized(t *testing.T) {
	tk := newTask(t, 30)
	tk.SetTags([]string{" Urgent", "urgent", "Deep ", ""}, now)

	assert.Equal(t, []string{"deep", "urgent"}, tk.Tags())
	assert.True(t, tk.HasTag("URGENT"))

	tk.RemoveTag("Urgent", now)
	tk.AddTag("Overdue", now)
	assert.Equal(t, []string{"deep", "overdue"}, tk.Tags())
}

func TestTask_SetDependenciesRejectsSelf(t *testing.T) {
	tk := newTask(t, 30)
	other := uuid.New()

	require.NoError(t, tk.SetDependencies([]uuid.UUID{other, other, uuid.Nil}, now))
	assert.Equal(t, []uuid.UUID{other}, tk.Dependencies())

	assert.ErrorIs(t, tk.SetDependencies([]uuid.UUID{tk.ID()}, now), task.ErrSelfDependency)
}

func TestTask_LockAndUnlock(t *testing.T) {
	tk := newTask(t, 30)
	tk.ClearDomainEvents()

	require.NoError(t, tk.LockPriority(150, " board request ", "alice", now))
	lock := tk.LockedPriority()
	require.NotNil(t, lock)
	assert.Equal(t, task.MaxLockedScore, lock.Score)
	assert.Equal(t, "board request", lock.Reason)
	assert.Equal(t, "alice", lock.LockedBy)

	lock.Score = 1
	assert.Equal(t, 100, tk.LockedPriority().Score, "LockedPriority returns a copy")

	require.NoError(t, tk.UnlockPriority(now))
	assert.False(t, tk.IsPriorityLocked())
	assert.ErrorIs(t, tk.UnlockPriority(now), task.ErrPriorityNotLocked)

	assert.Equal(t, []string{task.RoutingKeyPriorityLocked, task.RoutingKeyPriorityUnlocked}, routingKeys(tk))
}

func TestTask_Complete(t *testing.T) {
	tk := newTask(t, 30)

	require.NoError(t, tk.Complete(now))
	assert.True(t, tk.IsCompleted())
	require.NotNil(t, tk.CompletedAt())

	assert.ErrorIs(t, tk.Complete(now), task.ErrTaskCompleted)
	assert.ErrorIs(t, tk.LockPriority(50, "", "", now), task.ErrTaskCompleted)
	assert.ErrorIs(t, tk.SetStatus(task.StatusInProgress, now), task.ErrTaskCompleted)
}

func TestTask_RescheduleDueNeverMovesEarlier(t *testing.T) {
	tk := newTask(t, 30)
	original := now.Add(48 * time.Hour)
	require.NoError(t, tk.SetDueDate(&original, now))
	tk.AddTag(task.TagOverdue, now)

	tk.RescheduleDue(now.Add(6*time.Hour), "critical", now)

	assert.Equal(t, original, *tk.DueDate())
	assert.False(t, tk.HasTag(task.TagOverdue))
	assert.True(t, tk.HasTag(task.TagRescheduled))

	later := now.Add(96 * time.Hour)
	tk.RescheduleDue(later, "standard", now)
	assert.Equal(t, later, *tk.DueDate())
}

func TestTask_IsOverdue(t *testing.T) {
	tk := newTask(t, 30)
	assert.False(t, tk.IsOverdue(now))

	due := now.Add(-time.Hour)
	require.NoError(t, tk.SetDueDate(&due, now))
	assert.True(t, tk.IsOverdue(now))

	require.NoError(t, tk.Complete(now))
	assert.False(t, tk.IsOverdue(now))
}

func TestTask_SnapshotRoundTrip(t *testing.T) {
	tk := newTask(t, 90)
	project := uuid.New()
	due := now.Add(24 * time.Hour)
	tk.SetProject(&project, now)
	require.NoError(t, tk.SetDueDate(&due, now))
	tk.SetTags([]string{"strategic"}, now)
	tk.SetMemoryLinks([]string{"doc://a", "doc://a", "doc://b"}, now)
	tk.SetWorkMode(vo.WorkModeDeepWork, now)
	tk.ApplyPriority(vo.NewPriorityFromComponents(30, 30, 16))
	require.NoError(t, tk.LockPriority(70, "exec", "bob", now))

	clone := tk.Clone()

	assert.Equal(t, tk.Snapshot(), clone.Snapshot())
	assert.Empty(t, clone.DomainEvents())
	assert.Equal(t, []string{"doc://a", "doc://b"}, clone.MemoryLinks())

	clone.SetTags(nil, now)
	assert.Equal(t, []string{"strategic"}, tk.Tags(), "clone is independent")
}

func TestParseStatus(t *testing.T) {
	tests := map[string]task.Status{
		"":            task.StatusTodo,
		"in_progress": task.StatusInProgress,
		"In-Progress": task.StatusInProgress,
		"done":        task.StatusCompleted,
		"blocked":     task.StatusBlocked,
	}
	for in, want := range tests {
		got, err := task.ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := task.ParseStatus("archived")
	assert.ErrorIs(t, err, task.ErrInvalidStatus)
	assert.True(t, task.StatusInProgress.IsActive())
	assert.False(t, task.StatusBlocked.IsActive())
}
