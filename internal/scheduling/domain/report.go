package domain

import (
	"errors"
	"strings"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/google/uuid"
)

// Allocation is what the scheduler managed to place for one task.
type Allocation struct {
	TaskID    uuid.UUID
	Title     string
	Requested int
	Allocated int
	Blocks    []TimeBlock
}

// Partial reports whether fewer minutes were placed than requested.
func (a Allocation) Partial() bool {
	return a.Allocated < a.Requested
}

// Missing returns the minutes left unplaced.
func (a Allocation) Missing() int {
	return max(a.Requested-a.Allocated, 0)
}

// OverdueTier is the policy band an overdue task fell into.
type OverdueTier string

const (
	TierCritical OverdueTier = "critical"
	TierHigh     OverdueTier = "high"
	TierStandard OverdueTier = "standard"
)

func (t OverdueTier) String() string { return string(t) }

// OverdueChange records one due date moved by the overdue pass.
type OverdueChange struct {
	TaskID       uuid.UUID
	Title        string
	Score        int
	HoursOverdue float64
	PreviousDue  time.Time
	NewDue       time.Time
	Tier         OverdueTier
}

// Conflict is a block overlapping a calendar event on the same day.
type Conflict struct {
	BlockID    uuid.UUID
	TaskID     uuid.UUID
	EventID    uuid.UUID
	EventTitle string
	Source     calendarDomain.Source
	BlockStart time.Time
	BlockEnd   time.Time
	EventStart time.Time
	EventEnd   time.Time
}

// Overlap returns how long the block and the event intersect.
func (c Conflict) Overlap() time.Duration {
	start := c.BlockStart
	if c.EventStart.After(start) {
		start = c.EventStart
	}
	end := c.BlockEnd
	if c.EventEnd.Before(end) {
		end = c.EventEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// ConflictPolicy is how the host wants conflicts handled. The engine only
// reports it.
type ConflictPolicy string

const (
	PolicyBlockTime           ConflictPolicy = "block-time"
	PolicySuggestAlternatives ConflictPolicy = "suggest-alternatives"
	PolicyNotifyOnly          ConflictPolicy = "notify-only"
)

// ErrInvalidConflictPolicy is returned for unknown policies.
var ErrInvalidConflictPolicy = errors.New("invalid conflict policy")

// ParseConflictPolicy parses a policy name. Empty input yields notify-only.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyNotifyOnly, nil
	case PolicyBlockTime, PolicySuggestAlternatives, PolicyNotifyOnly:
		return p, nil
	}
	return "", ErrInvalidConflictPolicy
}

// Report describes one recompute.
type Report struct {
	Trigger TriggerKind
	At      time.Time

	// Rebuilt is true when the whole block set was regenerated.
	Rebuilt bool
	// Skipped explains why nothing ran, e.g. an unknown task.
	Skipped string

	Allocations    []Allocation
	UnderScheduled []Allocation
	OverdueChanges []OverdueChange

	// DetectedConflicts are found against the blocks before the run.
	DetectedConflicts []Conflict
	// Conflicts remain after the run.
	Conflicts []Conflict

	BlocksBefore int
	BlocksAfter  int
}

// AddAllocation records an allocation, tracking it as under-scheduled when
// it fell short.
func (r *Report) AddAllocation(a Allocation) {
	r.Allocations = append(r.Allocations, a)
	if a.Partial() {
		r.UnderScheduled = append(r.UnderScheduled, a)
	}
}

// ChangedTaskIDs lists tasks whose due dates moved.
func (r Report) ChangedTaskIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.OverdueChanges))
	for i, c := range r.OverdueChanges {
		ids[i] = c.TaskID
	}
	return ids
}
