package services

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

const (
	// FlexibleScoreThreshold is the score below which blocks may be moved.
	FlexibleScoreThreshold = 70

	splitHorizonDays = 5
	splitMaxBlocks   = 5
	splitMaxChunk    = 120
	splitMinChunk    = 30
	splitLeadBuffer  = 15 * time.Minute
)

// BlockPacker turns candidate slots into time blocks for one task.
type BlockPacker struct {
	prefs  schedulingDomain.UserPreferences
	finder *TimeSlotFinder
	now    time.Time
}

// NewBlockPacker creates a packer that falls back to finder when no candidate
// fits.
func NewBlockPacker(prefs schedulingDomain.UserPreferences, finder *TimeSlotFinder, now time.Time) *BlockPacker {
	return &BlockPacker{prefs: prefs, finder: finder, now: now}
}

// CreateTimeBlocksForTask places one block in the first candidate that holds
// duration plus a buffer on both sides. When none does, the task is split
// across the days following target.
func (p *BlockPacker) CreateTimeBlocksForTask(
	t *task.Task,
	duration int,
	candidates []schedulingDomain.TimeSlot,
	isDeepWork bool,
	target time.Time,
) []schedulingDomain.TimeBlock {
	buffer := time.Duration(p.prefs.FocusBlocks.BufferBetweenTasks) * time.Minute
	length := time.Duration(duration) * time.Minute

	for _, slot := range candidates {
		if slot.Duration() < length+2*buffer {
			continue
		}
		start := slot.Start.Add(buffer)
		b, err := p.block(t, start, start.Add(length), buffer, buffer, isDeepWork)
		if err != nil {
			return nil
		}
		return []schedulingDomain.TimeBlock{b}
	}

	return p.SplitTaskAcrossDays(t, duration, target, isDeepWork)
}

// SplitTaskAcrossDays places one chunk per day over up to five days starting
// at from. A day qualifies when it has a free gap of the remaining minutes,
// capped at 120; the chunk fills that gap less 30 minutes of buffer. Chunks
// under 30 minutes are dropped.
func (p *BlockPacker) SplitTaskAcrossDays(t *task.Task, total int, from time.Time, isDeepWork bool) []schedulingDomain.TimeBlock {
	remaining := total
	day := p.finder.midnight(from)

	var blocks []schedulingDomain.TimeBlock
	for i := 0; i < splitHorizonDays && remaining > 0 && len(blocks) < splitMaxBlocks; i++ {
		slots := p.finder.FindAvailableTimeSlots(day.AddDate(0, 0, i), min(remaining, splitMaxChunk))
		if len(slots) == 0 {
			continue
		}
		slot := slots[0]
		chunk := min(remaining, slot.Minutes()-30)
		if chunk < splitMinChunk {
			continue
		}
		start := slot.Start.Add(splitLeadBuffer)
		b, err := p.block(t, start, start.Add(time.Duration(chunk)*time.Minute), splitLeadBuffer, splitLeadBuffer, isDeepWork)
		if err != nil {
			continue
		}
		blocks = append(blocks, b)
		remaining -= chunk
	}
	return blocks
}

func (p *BlockPacker) block(t *task.Task, start, end time.Time, before, after time.Duration, isDeepWork bool) (schedulingDomain.TimeBlock, error) {
	return schedulingDomain.NewTimeBlock(schedulingDomain.BlockSpec{
		UserID:       t.UserID(),
		TaskID:       t.ID(),
		Title:        t.Title(),
		Start:        start,
		End:          end,
		BufferBefore: int(before / time.Minute),
		BufferAfter:  int(after / time.Minute),
		Type:         BlockTypeFor(t),
		Flexible:     !isDeepWork && t.Priority().Score() < FlexibleScoreThreshold,
	}, p.now)
}

// BlockTypeFor maps a task's work mode onto a block type.
func BlockTypeFor(t *task.Task) schedulingDomain.BlockType {
	if t.WorkMode().IsDeepWork() {
		return schedulingDomain.BlockTypeDeepWork
	}
	return schedulingDomain.BlockTypeAdmin
}
