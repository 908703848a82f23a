package services

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
)

// Urgency points by time left until the due date.
const (
	urgencyOverdue   = 40
	urgencyWithinDay = 38
	urgencyWithin3d  = 35
	urgencyWithinWk  = 30
	urgencyLater     = 15
	urgencyNoDueDate = 20

	urgencyTagUrgent    = 5
	urgencyTagBlocked   = 3
	urgencyReactiveMode = 2
)

// Impact points.
const (
	impactBase          = 20
	impactActiveProject = 10
	impactSprint        = 5
	impactDependencies  = 5
	impactTagImportant  = 8
	impactTagStrategic  = 6
	impactDeepWork      = 4
	impactHeavyLoad     = 3
)

// Memory context points.
const (
	memoryBase       = 10
	memoryPerLink    = 3
	memoryLinksLimit = 15
)

// ProjectSignal is what the engine needs to know about a task's project.
type ProjectSignal struct {
	Active bool
	Sprint bool
}

// PriorityInput carries every attribute the score depends on. All fields
// are optional.
type PriorityInput struct {
	DueDate       *time.Time
	Tags          []string
	WorkMode      vo.WorkMode
	CognitiveLoad vo.CognitiveLoad
	Project       *ProjectSignal
	Dependencies  int
	MemoryLinks   int
	// LockedScore overrides everything else when set.
	LockedScore *int
}

// PriorityEngine scores tasks and classifies them into quadrants.
// It is stateless and never fails.
type PriorityEngine struct{}

// NewPriorityEngine creates a priority engine.
func NewPriorityEngine() *PriorityEngine {
	return &PriorityEngine{}
}

// Compute derives a Priority from in, measuring time-to-due from now.
func (e *PriorityEngine) Compute(in PriorityInput, now time.Time) vo.Priority {
	if in.LockedScore != nil {
		return Locked(*in.LockedScore)
	}
	return vo.NewPriorityFromComponents(
		urgency(in, now),
		impact(in),
		memoryContext(in.MemoryLinks),
	)
}

// ForTask computes the priority of t. project may be nil.
func (e *PriorityEngine) ForTask(t *task.Task, project *projectDomain.Project, now time.Time) vo.Priority {
	return e.Compute(InputForTask(t, project), now)
}

// InputForTask collects the scoring attributes of t.
func InputForTask(t *task.Task, project *projectDomain.Project) PriorityInput {
	in := PriorityInput{
		DueDate:       t.DueDate(),
		Tags:          t.Tags(),
		WorkMode:      t.WorkMode(),
		CognitiveLoad: t.CognitiveLoad(),
		Dependencies:  len(t.Dependencies()),
		MemoryLinks:   len(t.MemoryLinks()),
	}
	if project != nil {
		in.Project = &ProjectSignal{Active: project.IsActive(), Sprint: project.IsSprint()}
	}
	if lock := t.LockedPriority(); lock != nil {
		score := lock.Score
		in.LockedScore = &score
	}
	return in
}

// Locked spreads a pinned score over the components in 40/35/25 shares.
// The quadrant then follows from those components as usual.
func Locked(score int) vo.Priority {
	score = max(task.MinLockedScore, min(score, task.MaxLockedScore))
	return vo.NewPriority(score, score*40/100, score*35/100, score*25/100)
}

func urgency(in PriorityInput, now time.Time) int {
	u := urgencyNoDueDate
	if in.DueDate != nil {
		left := in.DueDate.Sub(now)
		switch {
		case left < 0:
			u = urgencyOverdue
		case left < 24*time.Hour:
			u = urgencyWithinDay
		case left < 72*time.Hour:
			u = urgencyWithin3d
		case left < 168*time.Hour:
			u = urgencyWithinWk
		default:
			u = urgencyLater
		}
	}
	if hasTag(in.Tags, task.TagUrgent) {
		u += urgencyTagUrgent
	}
	if hasTag(in.Tags, task.TagBlocked) {
		u += urgencyTagBlocked
	}
	if in.WorkMode == vo.WorkModeReactive {
		u += urgencyReactiveMode
	}
	return min(u, vo.MaxUrgency)
}

func impact(in PriorityInput) int {
	i := impactBase
	if in.Project != nil {
		if in.Project.Active {
			i += impactActiveProject
		}
		if in.Project.Sprint {
			i += impactSprint
		}
	}
	if in.Dependencies > 0 {
		i += impactDependencies
	}
	if hasTag(in.Tags, task.TagImportant) {
		i += impactTagImportant
	}
	if hasTag(in.Tags, task.TagStrategic) {
		i += impactTagStrategic
	}
	if in.WorkMode.IsDeepWork() {
		i += impactDeepWork
	}
	if in.CognitiveLoad == vo.CognitiveLoadHeavy {
		i += impactHeavyLoad
	}
	return min(i, vo.MaxImpact)
}

func memoryContext(links int) int {
	return min(memoryBase+min(memoryPerLink*max(links, 0), memoryLinksLimit), vo.MaxMemoryContext)
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
