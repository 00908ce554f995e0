package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

// ShareRepository persists share rows. Upsert is atomic on the
// (TaskID, SharedWithID) pair: an existing row keeps its id and grant time and
// only takes the new permission.
type ShareRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Share, error)
	Get(ctx context.Context, taskID, userID string) (*domain.Share, error)
	Upsert(ctx context.Context, share *domain.Share) (*domain.Share, error)
	Delete(ctx context.Context, id string) error
	ListByTask(ctx context.Context, taskID string) ([]domain.Share, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Share, error)
}
