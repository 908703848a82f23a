package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidBlockType = errors.New("invalid block type")
)

// BlockType represents the type of scheduled work.
type BlockType string

const (
	BlockTypeDeepWork BlockType = "deep-work"
	BlockTypeAdmin    BlockType = "admin"
	BlockTypeMeeting  BlockType = "meeting"
	BlockTypeBreak    BlockType = "break"
)

func (t BlockType) String() string { return string(t) }

// ParseBlockType parses a block type.
func ParseBlockType(s string) (BlockType, error) {
	switch t := BlockType(s); t {
	case BlockTypeDeepWork, BlockTypeAdmin, BlockTypeMeeting, BlockTypeBreak:
		return t, nil
	}
	return "", ErrInvalidBlockType
}

// TimeBlock is a span of time reserved for a task. Buffers are
// informational: start and end already account for them.
type TimeBlock struct {
	id           uuid.UUID
	userID       uuid.UUID
	taskID       uuid.UUID
	title        string
	start        time.Time
	end          time.Time
	bufferBefore int
	bufferAfter  int
	blockType    BlockType
	flexible     bool
	createdAt    time.Time
}

// BlockSpec holds the fields needed to create a TimeBlock.
type BlockSpec struct {
	UserID       uuid.UUID
	TaskID       uuid.UUID
	Title        string
	Start        time.Time
	End          time.Time
	BufferBefore int
	BufferAfter  int
	Type         BlockType
	Flexible     bool
}

// NewTimeBlock creates a new time block.
func NewTimeBlock(spec BlockSpec, now time.Time) (TimeBlock, error) {
	if !spec.End.After(spec.Start) {
		return TimeBlock{}, ErrInvalidTimeRange
	}
	if spec.Type == "" {
		spec.Type = BlockTypeAdmin
	}
	return TimeBlock{
		id:           uuid.New(),
		userID:       spec.UserID,
		taskID:       spec.TaskID,
		title:        spec.Title,
		start:        spec.Start.UTC(),
		end:          spec.End.UTC(),
		bufferBefore: spec.BufferBefore,
		bufferAfter:  spec.BufferAfter,
		blockType:    spec.Type,
		flexible:     spec.Flexible,
		createdAt:    now.UTC(),
	}, nil
}

// RehydrateTimeBlock recreates a time block from persisted state.
func RehydrateTimeBlock(id uuid.UUID, spec BlockSpec, createdAt time.Time) TimeBlock {
	return TimeBlock{
		id:           id,
		userID:       spec.UserID,
		taskID:       spec.TaskID,
		title:        spec.Title,
		start:        spec.Start.UTC(),
		end:          spec.End.UTC(),
		bufferBefore: spec.BufferBefore,
		bufferAfter:  spec.BufferAfter,
		blockType:    spec.Type,
		flexible:     spec.Flexible,
		createdAt:    createdAt.UTC(),
	}
}

// Getters
func (b TimeBlock) ID() uuid.UUID        { return b.id }
func (b TimeBlock) UserID() uuid.UUID    { return b.userID }
func (b TimeBlock) TaskID() uuid.UUID    { return b.taskID }
func (b TimeBlock) Title() string        { return b.title }
func (b TimeBlock) Start() time.Time     { return b.start }
func (b TimeBlock) End() time.Time       { return b.end }
func (b TimeBlock) BufferBefore() int    { return b.bufferBefore }
func (b TimeBlock) BufferAfter() int     { return b.bufferAfter }
func (b TimeBlock) Type() BlockType      { return b.blockType }
func (b TimeBlock) IsFlexible() bool     { return b.flexible }
func (b TimeBlock) CreatedAt() time.Time { return b.createdAt }

// Duration returns the block duration.
func (b TimeBlock) Duration() time.Duration {
	return b.end.Sub(b.start)
}

// Minutes returns the block duration in whole minutes.
func (b TimeBlock) Minutes() int {
	return int(b.Duration() / time.Minute)
}

// OverlapsWith checks if this block overlaps with another.
func (b TimeBlock) OverlapsWith(other TimeBlock) bool {
	return b.Overlaps(other.start, other.end)
}

// Overlaps checks if [start,end) intersects the block.
func (b TimeBlock) Overlaps(start, end time.Time) bool {
	return b.start.Before(end) && b.end.After(start)
}

// Contains checks if a time falls within this block.
func (b TimeBlock) Contains(t time.Time) bool {
	return !t.Before(b.start) && t.Before(b.end)
}

// Spec returns the fields the block was built from.
func (b TimeBlock) Spec() BlockSpec {
	return BlockSpec{
		UserID:       b.userID,
		TaskID:       b.taskID,
		Title:        b.title,
		Start:        b.start,
		End:          b.end,
		BufferBefore: b.bufferBefore,
		BufferAfter:  b.bufferAfter,
		Type:         b.blockType,
		Flexible:     b.flexible,
	}
}

// TimeSlot represents an available time slot.
type TimeSlot struct {
	Start time.Time
	End   time.Time
}

// Duration returns the slot duration.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Minutes returns the slot span in whole minutes.
func (s TimeSlot) Minutes() int {
	return int(s.Duration() / time.Minute)
}
