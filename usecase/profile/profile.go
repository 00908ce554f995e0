package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile stores the caller's display name and email. Status is kept
// from the stored profile.
func (uc *UseCase) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	current, err := uc.users.GetByID(ctx, user.ID)
	switch {
	case err == nil:
		user.Status = current.Status
	case errors.Is(err, domain.ErrUserNotFound):
		user.Status = "active"
	default:
		return nil, err
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
			uc.log(ctx).Error("failed to update profile", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, err
	}
	uc.log(ctx).Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}

func (uc *UseCase) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, uc.logger)
}
