package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

// TaskFilter narrows ListByOwner. Limit <= 0 means no limit.
type TaskFilter struct {
	OwnerID string
	Status  string
	Limit   int
	Offset  int
}

// TaskRepository persists task rows. Update must compare and increment the
// version atomically: when expectedVersion is non-nil and differs from the
// stored version it returns a VERSION_CONFLICT error without writing.
// Delete removes the task together with all of its shares.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch, expectedVersion *int) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}
