package task

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
)

// UseCase orchestrates task storage, sharing and the access policy. Every
// access or version check runs before the store is asked to write.
type UseCase struct {
	tasks  repository.TaskRepository
	shares repository.ShareRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, shares repository.ShareRepository, users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		shares: shares,
		users:  users,
		logger: logger,
	}
}

// CreateInput holds the caller-supplied fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     *time.Time
}

// ListFilter narrows the visible task list.
type ListFilter struct {
	Status string
}

func (uc *UseCase) CreateTask(ctx context.Context, callerID string, input CreateInput) (*domain.Task, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	task := &domain.Task{
		OwnerID:     callerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		uc.log(ctx).Error("failed to create task", zap.Error(err))
		return nil, err
	}
	uc.log(ctx).Info("task created", zap.String("task_id", created.ID))
	return created, nil
}

// ListTasks returns the tasks the caller owns plus those shared with them,
// newest first.
func (uc *UseCase) ListTasks(ctx context.Context, callerID string, filter ListFilter) ([]domain.Task, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	if filter.Status != "" && !domain.TaskStatus(filter.Status).Valid() {
		return nil, domain.Invalid("status", "must be one of todo, in_progress, completed")
	}

	var owned, shared []domain.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = uc.tasks.ListByOwner(gctx, repository.TaskFilter{OwnerID: callerID, Status: filter.Status})
		return err
	})
	g.Go(func() error {
		grants, err := uc.shares.ListByUser(gctx, callerID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(grants))
		for _, grant := range grants {
			ids = append(ids, grant.TaskID)
		}
		shared, err = uc.tasks.ListByIDs(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log(ctx).Error("failed to list tasks", zap.Error(err))
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned)+len(shared))
	result := make([]domain.Task, 0, len(owned)+len(shared))
	for _, group := range [][]domain.Task{owned, shared} {
		for _, task := range group {
			if _, dup := seen[task.ID]; dup {
				continue
			}
			if filter.Status != "" && string(task.Status) != filter.Status {
				continue
			}
			seen[task.ID] = struct{}{}
			result = append(result, task)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetTask returns the task, its shares and the caller's role on it.
func (uc *UseCase) GetTask(ctx context.Context, taskID, callerID string) (*domain.TaskDetails, error) {
	return uc.authorize(ctx, taskID, callerID, domain.ActionRead)
}

// UpdateTask merges patch into the task. A non-nil expectedVersion must match
// the stored version; a nil one accepts last-writer-wins semantics.
func (uc *UseCase) UpdateTask(ctx context.Context, taskID, callerID string, patch domain.TaskPatch, expectedVersion *int) (*domain.Task, error) {
	details, err := uc.authorize(ctx, taskID, callerID, domain.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckVersion(&details.Task, expectedVersion); err != nil {
		uc.log(ctx).Warn("stale task version", zap.String("task_id", taskID), zap.Int("current_version", details.Version))
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.Invalid("patch", "no fields to update")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch = patch.Normalized()

	updated, err := uc.tasks.Update(ctx, taskID, patch, expectedVersion)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeVersionConflict) {
			uc.log(ctx).Warn("lost concurrent task update", zap.String("task_id", taskID))
		} else if !errors.Is(err, domain.ErrTaskNotFound) {
			uc.log(ctx).Error("failed to update task", zap.String("task_id", taskID), zap.Error(err))
		}
		return nil, err
	}
	uc.log(ctx).Info("task updated", zap.String("task_id", taskID), zap.Int("version", updated.Version))
	return updated, nil
}

// DeleteTask removes an owned task together with all of its shares.
func (uc *UseCase) DeleteTask(ctx context.Context, taskID, callerID string) error {
	if _, err := uc.authorize(ctx, taskID, callerID, domain.ActionDelete); err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, taskID); err != nil {
		if !errors.Is(err, domain.ErrTaskNotFound) {
			uc.log(ctx).Error("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		}
		return err
	}
	uc.log(ctx).Info("task deleted", zap.String("task_id", taskID))
	return nil
}

// authorize loads the task with its shares and checks the caller may perform action.
func (uc *UseCase) authorize(ctx context.Context, taskID, callerID string, action domain.Action) (*domain.TaskDetails, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	shares, err := uc.shares.ListByTask(ctx, taskID)
	if err != nil {
		uc.log(ctx).Error("failed to load task shares", zap.String("task_id", taskID), zap.Error(err))
		return nil, err
	}

	role := domain.EffectivePermission(task, shares, callerID)
	if err := domain.Authorize(role, action, taskID); err != nil {
		uc.log(ctx).Info("task access denied", zap.String("task_id", taskID), zap.String("action", string(action)), zap.String("role", string(role)))
		return nil, err
	}

	if shares == nil {
		shares = []domain.Share{}
	}
	return &domain.TaskDetails{Task: *task, Shares: shares, Role: role}, nil
}

func (uc *UseCase) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, uc.logger)
}
