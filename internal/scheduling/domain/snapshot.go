package domain

import (
	"time"

	"github.com/google/uuid"
)

// BlockRecord is the serialized form of a TimeBlock.
type BlockRecord struct {
	ID           uuid.UUID `json:"id"`
	TaskID       uuid.UUID `json:"task_id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	BufferBefore int       `json:"buffer_before"`
	BufferAfter  int       `json:"buffer_after"`
	Type         BlockType `json:"type"`
	Flexible     bool      `json:"flexible"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScheduleSnapshot is a user's block set as of one recompute.
type ScheduleSnapshot struct {
	UserID     uuid.UUID     `json:"user_id"`
	Trigger    TriggerKind   `json:"trigger"`
	ComputedAt time.Time     `json:"computed_at"`
	Blocks     []BlockRecord `json:"blocks"`
}

// NewScheduleSnapshot captures blocks after a recompute.
func NewScheduleSnapshot(userID uuid.UUID, trigger TriggerKind, at time.Time, blocks []TimeBlock) ScheduleSnapshot {
	records := make([]BlockRecord, len(blocks))
	for i, b := range blocks {
		records[i] = BlockRecord{
			ID:           b.ID(),
			TaskID:       b.TaskID(),
			Title:        b.Title(),
			Start:        b.Start(),
			End:          b.End(),
			BufferBefore: b.BufferBefore(),
			BufferAfter:  b.BufferAfter(),
			Type:         b.Type(),
			Flexible:     b.IsFlexible(),
			CreatedAt:    b.CreatedAt(),
		}
	}
	return ScheduleSnapshot{
		UserID:     userID,
		Trigger:    trigger,
		ComputedAt: at.UTC(),
		Blocks:     records,
	}
}

// TimeBlocks rebuilds the blocks of the snapshot.
func (s ScheduleSnapshot) TimeBlocks() []TimeBlock {
	blocks := make([]TimeBlock, len(s.Blocks))
	for i, r := range s.Blocks {
		blocks[i] = RehydrateTimeBlock(r.ID, BlockSpec{
			UserID:       s.UserID,
			TaskID:       r.TaskID,
			Title:        r.Title,
			Start:        r.Start,
			End:          r.End,
			BufferBefore: r.BufferBefore,
			BufferAfter:  r.BufferAfter,
			Type:         r.Type,
			Flexible:     r.Flexible,
		}, r.CreatedAt)
	}
	return blocks
}
