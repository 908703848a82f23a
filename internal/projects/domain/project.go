package domain

import (
	"context"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on-hold"
	StatusCompleted Status = "completed"
)

// ParseStatus parses a project status. Empty input yields active.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusActive:
		return StatusActive, nil
	case StatusOnHold:
		return StatusOnHold, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) String() string { return string(s) }

// Type distinguishes time-boxed sprints from ordinary projects.
type Type string

const (
	TypeStandard Type = "standard"
	TypeSprint   Type = "sprint"
)

// ParseType parses a project type. Empty input yields standard.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeStandard:
		return TypeStandard, nil
	case TypeSprint:
		return TypeSprint, nil
	}
	return "", ErrInvalidType
}

func (t Type) String() string { return string(t) }

// Project groups tasks. The scheduler reads its status and type as
// priority signals.
type Project struct {
	sharedDomain.BaseEntity
	userID      uuid.UUID
	name        string
	description string
	status      Status
	kind        Type
}

// NewProject creates an active project.
func NewProject(userID uuid.UUID, name string, kind Type, now time.Time) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if kind == "" {
		kind = TypeStandard
	}
	return &Project{
		BaseEntity: sharedDomain.NewBaseEntity(now),
		userID:     userID,
		name:       name,
		status:     StatusActive,
		kind:       kind,
	}, nil
}

// RehydrateProject recreates a project from persisted state.
func RehydrateProject(id, userID uuid.UUID, name, description string, status Status, kind Type, createdAt, updatedAt time.Time) *Project {
	return &Project{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		userID:      userID,
		name:        name,
		description: description,
		status:      status,
		kind:        kind,
	}
}

func (p *Project) UserID() uuid.UUID   { return p.userID }
func (p *Project) Name() string        { return p.name }
func (p *Project) Description() string { return p.description }
func (p *Project) Status() Status      { return p.status }
func (p *Project) Type() Type          { return p.kind }

// IsActive reports whether tasks linked to the project get the active-project boost.
func (p *Project) IsActive() bool { return p.status == StatusActive }

// IsSprint reports whether the project is a sprint.
func (p *Project) IsSprint() bool { return p.kind == TypeSprint }

// SetDescription updates the description.
func (p *Project) SetDescription(description string, now time.Time) {
	p.description = strings.TrimSpace(description)
	p.Touch(now)
}

// ChangeStatus moves the project to a new status.
func (p *Project) ChangeStatus(status Status, now time.Time) {
	p.status = status
	p.Touch(now)
}

// Repository defines persistence for projects.
type Repository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
}
