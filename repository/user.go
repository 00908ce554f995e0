package repository

import (
	"context"

	"github.com/fastygo/taskshare/domain"
)

// UserRepository stores user profiles. Delete also removes the tasks the
// user owns and every share granted to them.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
