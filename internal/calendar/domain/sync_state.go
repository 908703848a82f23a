package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncState tracks the last import of one calendar source for a user.
type SyncState struct {
	userID        uuid.UUID
	source        Source
	lastSuccessAt *time.Time
	lastError     string
	lastErrorAt   *time.Time
	eventCount    int
}

// NewSyncState creates an empty sync state.
func NewSyncState(userID uuid.UUID, source Source) *SyncState {
	return &SyncState{userID: userID, source: source}
}

// RehydrateSyncState recreates a sync state from persisted data.
func RehydrateSyncState(
	userID uuid.UUID,
	source Source,
	lastSuccessAt *time.Time,
	lastError string,
	lastErrorAt *time.Time,
	eventCount int,
) *SyncState {
	return &SyncState{
		userID:        userID,
		source:        source,
		lastSuccessAt: lastSuccessAt,
		lastError:     lastError,
		lastErrorAt:   lastErrorAt,
		eventCount:    eventCount,
	}
}

func (s *SyncState) UserID() uuid.UUID         { return s.userID }
func (s *SyncState) Source() Source            { return s.source }
func (s *SyncState) LastSuccessAt() *time.Time { return s.lastSuccessAt }
func (s *SyncState) LastError() string         { return s.lastError }
func (s *SyncState) LastErrorAt() *time.Time   { return s.lastErrorAt }
func (s *SyncState) EventCount() int           { return s.eventCount }

// HasSynced returns true if at least one import succeeded.
func (s *SyncState) HasSynced() bool {
	return s.lastSuccessAt != nil
}

// IsFailing reports whether the latest attempt failed.
func (s *SyncState) IsFailing() bool {
	if s.lastErrorAt == nil {
		return false
	}
	return s.lastSuccessAt == nil || s.lastErrorAt.After(*s.lastSuccessAt)
}

// MarkSuccess records a successful import of count events.
func (s *SyncState) MarkSuccess(count int, now time.Time) {
	at := now.UTC()
	s.lastSuccessAt = &at
	s.eventCount = count
}

// MarkFailure records a failed import. Previous events are kept, so the
// event count is left alone.
func (s *SyncState) MarkFailure(err error, now time.Time) {
	at := now.UTC()
	s.lastError = err.Error()
	s.lastErrorAt = &at
}

// SyncStateRepository defines persistence for sync state.
type SyncStateRepository interface {
	Save(ctx context.Context, state *SyncState) error
	Find(ctx context.Context, userID uuid.UUID, source Source) (*SyncState, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*SyncState, error)
}
