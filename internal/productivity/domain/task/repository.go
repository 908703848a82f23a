package task

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows FindByUser results.
type Filter struct {
	Statuses []Status
}

// Repository defines the interface for task persistence.
type Repository interface {
	Save(ctx context.Context, task *Task) error
	SaveAll(ctx context.Context, tasks []*Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
