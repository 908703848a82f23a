package queries

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BlockDTO is a scheduled block as shown to users.
type BlockDTO struct {
	ID       uuid.UUID `json:"id"`
	TaskID   uuid.UUID `json:"task_id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Minutes  int       `json:"minutes"`
	Type     string    `json:"type"`
	Flexible bool      `json:"flexible"`
}

// ScheduleDTO is one day of blocks.
type ScheduleDTO struct {
	Date         string     `json:"date"`
	Timezone     string     `json:"timezone"`
	Blocks       []BlockDTO `json:"blocks"`
	TotalMinutes int        `json:"total_minutes"`
	FromCache    bool       `json:"from_cache"`
}

// ConflictDTO describes a block overlapping a calendar event.
type ConflictDTO struct {
	BlockID        uuid.UUID `json:"block_id"`
	TaskID         uuid.UUID `json:"task_id"`
	EventID        uuid.UUID `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	Source         string    `json:"source"`
	BlockStart     time.Time `json:"block_start"`
	BlockEnd       time.Time `json:"block_end"`
	EventStart     time.Time `json:"event_start"`
	EventEnd       time.Time `json:"event_end"`
	OverlapMinutes int       `json:"overlap_minutes"`
}

// ConflictsDTO lists conflicts together with the configured policy.
type ConflictsDTO struct {
	Policy    string        `json:"policy"`
	Conflicts []ConflictDTO `json:"conflicts"`
}

// SlotDTO is a free interval.
type SlotDTO struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"minutes"`
}

// ToBlockDTO converts a block.
func ToBlockDTO(b domain.TimeBlock) BlockDTO {
	return BlockDTO{
		ID:       b.ID(),
		TaskID:   b.TaskID(),
		Title:    b.Title(),
		Start:    b.Start(),
		End:      b.End(),
		Minutes:  b.Minutes(),
		Type:     string(b.Type()),
		Flexible: b.IsFlexible(),
	}
}

// ToConflictDTO converts a conflict.
func ToConflictDTO(c domain.Conflict) ConflictDTO {
	return ConflictDTO{
		BlockID:        c.BlockID,
		TaskID:         c.TaskID,
		EventID:        c.EventID,
		EventTitle:     c.EventTitle,
		Source:         string(c.Source),
		BlockStart:     c.BlockStart,
		BlockEnd:       c.BlockEnd,
		EventStart:     c.EventStart,
		EventEnd:       c.EventEnd,
		OverlapMinutes: int(c.Overlap() / time.Minute),
	}
}

func dayRange(date time.Time, loc *time.Location) (time.Time, time.Time) {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
