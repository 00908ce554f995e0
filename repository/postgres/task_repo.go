package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

const taskColumns = `id, owner_id, title, description, status, due_date, version, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) ListByOwner(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE owner_id = $1
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC, id
	LIMIT $3::bigint OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.OwnerID, filter.Status, limitArg(filter.Limit), offsetArg(filter.Offset))
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *taskRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = ANY($1)
	ORDER BY created_at DESC, id
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Normalize()

	const query = `
	INSERT INTO tasks (id, owner_id, title, description, status, due_date, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	var due interface{}
	if task.DueDate != nil {
		due = *task.DueDate
	}

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		due,
		task.Version,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

// Update applies the patch and bumps the version in a single statement so
// two writers holding the same expected version cannot both succeed.
func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch, expectedVersion *int) (*domain.Task, error) {
	patch = patch.Normalized()
	query := `
	UPDATE tasks
	SET title = COALESCE($2, title),
		description = COALESCE($3, description),
		status = COALESCE($4, status),
		due_date = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($5, due_date) END,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1
	  AND ($6::integer IS NULL OR version = $6::integer)
	RETURNING ` + taskColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	var due interface{}
	if patch.DueDate != nil {
		due = *patch.DueDate
	}

	row := r.pool.QueryRow(ctx, query,
		id,
		patch.Title,
		patch.Description,
		status,
		due,
		nullInt(expectedVersion),
		patch.ClearDueDate,
	)
	task, err := scanTask(row)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	// Nothing matched: either the row is gone or another writer moved the version.
	var current int
	if err := r.pool.QueryRow(ctx, `SELECT version FROM tasks WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	expected := -1
	if expectedVersion != nil {
		expected = *expectedVersion
	}
	return nil, domain.NewVersionConflict(id, expected, current)
}

// Delete relies on the task_shares foreign key cascade to drop shares in the same statement.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var (
		status string
		due    *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&due,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	return &task, nil
}
