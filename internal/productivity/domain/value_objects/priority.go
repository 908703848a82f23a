package value_objects

// Component ceilings for a Priority.
const (
	MaxScore         = 100
	MaxUrgency       = 40
	MaxImpact        = 35
	MaxMemoryContext = 25
)

// Priority is the computed importance of a task. The score is normally the
// sum of its components; a locked priority fixes the score independently.
type Priority struct {
	score          int
	urgency        int
	impact         int
	memoryContext  int
	quadrant       Quadrant
	timePreference TimePreference
}

// NewPriority clamps every component into its range and derives the
// quadrant and time preference from urgency and impact.
func NewPriority(score, urgency, impact, memoryContext int) Priority {
	urgency = clamp(urgency, 0, MaxUrgency)
	impact = clamp(impact, 0, MaxImpact)
	quadrant := ClassifyQuadrant(urgency, impact)
	return Priority{
		score:          clamp(score, 0, MaxScore),
		urgency:        urgency,
		impact:         impact,
		memoryContext:  clamp(memoryContext, 0, MaxMemoryContext),
		quadrant:       quadrant,
		timePreference: quadrant.TimePreference(),
	}
}

// NewPriorityFromComponents builds a Priority whose score is the clamped
// sum of its components.
func NewPriorityFromComponents(urgency, impact, memoryContext int) Priority {
	urgency = clamp(urgency, 0, MaxUrgency)
	impact = clamp(impact, 0, MaxImpact)
	memoryContext = clamp(memoryContext, 0, MaxMemoryContext)
	return NewPriority(urgency+impact+memoryContext, urgency, impact, memoryContext)
}

func (p Priority) Score() int                     { return p.score }
func (p Priority) Urgency() int                   { return p.urgency }
func (p Priority) Impact() int                    { return p.impact }
func (p Priority) MemoryContext() int             { return p.memoryContext }
func (p Priority) Quadrant() Quadrant             { return p.quadrant }
func (p Priority) TimePreference() TimePreference { return p.timePreference }

// IsZero reports whether the priority was never computed.
func (p Priority) IsZero() bool {
	return p.quadrant == ""
}

// Equals compares two priorities by value.
func (p Priority) Equals(other Priority) bool {
	return p == other
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
