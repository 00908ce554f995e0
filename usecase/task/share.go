package task

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
)

// ShareTask grants permission on an owned task to another user. Granting to a
// user who already holds a share replaces the permission on the same row.
func (uc *UseCase) ShareTask(ctx context.Context, taskID, callerID, granteeID string, permission domain.Permission) (*domain.Share, error) {
	if !permission.Valid() {
		return nil, domain.Invalid("permission", "must be one of view, edit, admin")
	}
	if granteeID == "" {
		return nil, domain.Invalid("shared_with_id", "must not be empty")
	}

	details, err := uc.authorize(ctx, taskID, callerID, domain.ActionShare)
	if err != nil {
		return nil, err
	}
	if granteeID == details.OwnerID {
		return nil, domain.ErrSelfShare
	}
	if _, err := uc.users.GetByID(ctx, granteeID); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.log(ctx).Error("grantee lookup failed", zap.String("grantee_id", granteeID), zap.Error(err))
		}
		return nil, err
	}

	share, err := uc.shares.Upsert(ctx, &domain.Share{
		TaskID:       details.ID,
		SharedWithID: granteeID,
		Permission:   permission,
	})
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.log(ctx).Error("failed to share task", zap.String("task_id", taskID), zap.Error(err))
		}
		return nil, err
	}
	uc.log(ctx).Info("task shared",
		zap.String("task_id", share.TaskID),
		zap.String("share_id", share.ID),
		zap.String("grantee_id", granteeID),
		zap.String("permission", string(share.Permission)))
	return share, nil
}

// RemoveShare revokes a share. The share must belong to taskID; a share of
// another task is reported as not found.
func (uc *UseCase) RemoveShare(ctx context.Context, taskID, shareID, callerID string) error {
	details, err := uc.authorize(ctx, taskID, callerID, domain.ActionUnshare)
	if err != nil {
		return err
	}

	share, err := uc.shares.GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	if share.TaskID != details.ID {
		uc.log(ctx).Warn("share does not belong to task", zap.String("task_id", taskID), zap.String("share_id", shareID))
		return domain.ErrShareNotFound
	}

	if err := uc.shares.Delete(ctx, shareID); err != nil {
		if !errors.Is(err, domain.ErrShareNotFound) {
			uc.log(ctx).Error("failed to remove share", zap.String("share_id", shareID), zap.Error(err))
		}
		return err
	}
	uc.log(ctx).Info("task share removed", zap.String("task_id", taskID), zap.String("share_id", shareID))
	return nil
}

// ListShares returns the task's shares joined with each grantee's public profile.
func (uc *UseCase) ListShares(ctx context.Context, taskID, callerID string) ([]domain.ShareEntry, error) {
	details, err := uc.authorize(ctx, taskID, callerID, domain.ActionListShares)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ShareEntry, 0, len(details.Shares))
	for _, share := range details.Shares {
		entry := domain.ShareEntry{
			ID:           share.ID,
			SharedWithID: share.SharedWithID,
			Permission:   share.Permission,
			SharedAt:     share.SharedAt,
			SharedWith:   domain.UserSummary{ID: share.SharedWithID},
		}
		user, err := uc.users.GetByID(ctx, share.SharedWithID)
		switch {
		case err == nil:
			entry.SharedWith = user.Summary()
		case errors.Is(err, domain.ErrUserNotFound):
			uc.log(ctx).Warn("share grantee missing", zap.String("share_id", share.ID))
		default:
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
