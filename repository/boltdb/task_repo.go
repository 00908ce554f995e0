package boltdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskshare/domain"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/repository"
)

type taskRepository struct {
	store *boltInfra.Store
	now   func() time.Time
}

// NewTaskRepository returns a Bolt-backed implementation of TaskRepository.
func NewTaskRepository(store *boltInfra.Store) repository.TaskRepository {
	return &taskRepository{store: store, now: utcNow}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var task domain.Task
	err := r.store.View(func(tx *bolt.Tx) error {
		found, err := boltInfra.GetJSON(tx.Bucket(boltInfra.BucketTasks), id, &task)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tasks []domain.Task
	err := r.store.View(func(tx *bolt.Tx) error {
		return forEachTask(tx, func(task domain.Task) {
			if task.OwnerID != filter.OwnerID {
				return
			}
			if filter.Status != "" && string(task.Status) != filter.Status {
				return
			}
			tasks = append(tasks, task)
		})
	})
	if err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return paginate(tasks, filter.Limit, filter.Offset), nil
}

func (r *taskRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var tasks []domain.Task
	err := r.store.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltInfra.BucketTasks)
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			var task domain.Task
			found, err := boltInfra.GetJSON(b, id, &task)
			if err != nil {
				return err
			}
			if found {
				tasks = append(tasks, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTasks(tasks)
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Normalize()
	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	err := r.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltInfra.BucketTasks)
		if b.Get([]byte(task.ID)) != nil {
			return domain.Invalid("id", "already exists")
		}
		return boltInfra.PutJSON(b, task.ID, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update reads, compares and writes inside one Bolt write transaction, so a
// concurrent writer always observes the previous increment.
func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch, expectedVersion *int) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var task domain.Task
	err := r.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltInfra.BucketTasks)
		found, err := boltInfra.GetJSON(b, id, &task)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrTaskNotFound
		}
		if expectedVersion != nil && *expectedVersion != task.Version {
			return domain.NewVersionConflict(id, *expectedVersion, task.Version)
		}
		patch.Apply(&task)
		task.Version++
		task.UpdatedAt = r.now()
		return boltInfra.PutJSON(b, id, &task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes the task and every share pointing at it in one transaction.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(boltInfra.BucketTasks)
		if tasks.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return deleteTask(tx, id)
	})
}

// deleteTask drops the task row and its shares inside tx.
func deleteTask(tx *bolt.Tx, id string) error {
	if err := tx.Bucket(boltInfra.BucketTasks).Delete([]byte(id)); err != nil {
		return err
	}

	pairs := tx.Bucket(boltInfra.BucketSharePairs)
	shares := tx.Bucket(boltInfra.BucketShares)
	keys, shareIDs := scanPairs(pairs, id)
	for i, key := range keys {
		if err := pairs.Delete(key); err != nil {
			return err
		}
		if err := shares.Delete([]byte(shareIDs[i])); err != nil {
			return err
		}
	}
	return nil
}

func forEachTask(tx *bolt.Tx, fn func(task domain.Task)) error {
	return tx.Bucket(boltInfra.BucketTasks).ForEach(func(_, v []byte) error {
		var task domain.Task
		if err := decode(v, &task); err != nil {
			return err
		}
		fn(task)
		return nil
	})
}

func sortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// paginate applies an optional page window. A non-positive limit returns
// everything from offset on.
func paginate(tasks []domain.Task, limit, offset int) []domain.Task {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tasks) {
		return nil
	}
	end := len(tasks)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return tasks[offset:end]
}
