package user

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
)

// UseCase serves the user directory: other users are visible only through
// their summary.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// ListUsers returns a page of user summaries. A non-positive limit returns
// every user.
func (uc *UseCase) ListUsers(ctx context.Context, callerID string, limit, offset int) ([]domain.UserSummary, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	users, err := uc.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

func (uc *UseCase) GetUser(ctx context.Context, callerID, userID string) (*domain.UserSummary, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if userID == "" {
		return nil, domain.Invalid("id", "must not be empty")
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

// DeleteUser removes the caller's own account together with the tasks they
// own and every share involving them, then revokes the calling session.
func (uc *UseCase) DeleteUser(ctx context.Context, callerID, sessionID, userID string) error {
	if callerID == "" {
		return domain.ErrUnauthorized
	}
	if callerID != userID {
		return domain.NewError(domain.ErrCodeForbidden, "users may only delete their own account")
	}
	if err := uc.users.Delete(ctx, userID); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.log(ctx).Error("failed to delete user", zap.String("user_id", userID), zap.Error(err))
		}
		return err
	}

	if sessionID != "" && uc.sessions != nil {
		if err := uc.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			uc.log(ctx).Warn("failed to revoke session of deleted user", zap.String("user_id", userID), zap.Error(err))
		}
	}
	uc.log(ctx).Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (uc *UseCase) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, uc.logger)
}
