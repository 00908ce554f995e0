package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

const shareColumns = `id, task_id, shared_with_id, permission, shared_at`

type shareRepository struct {
	pool *pgxpool.Pool
}

// NewShareRepository returns a Postgres-backed ShareRepository.
func NewShareRepository(pool *pgxpool.Pool) repository.ShareRepository {
	return &shareRepository{pool: pool}
}

func (r *shareRepository) GetByID(ctx context.Context, id string) (*domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE id = $1`
	return scanShare(r.pool.QueryRow(ctx, query, id))
}

func (r *shareRepository) Get(ctx context.Context, taskID, userID string) (*domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 AND shared_with_id = $2`
	return scanShare(r.pool.QueryRow(ctx, query, taskID, userID))
}

// Upsert resolves concurrent grants for the same pair through the
// unique_task_share constraint instead of a read-then-insert.
func (r *shareRepository) Upsert(ctx context.Context, share *domain.Share) (*domain.Share, error) {
	if share == nil || share.TaskID == "" || share.SharedWithID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if share.ID == "" {
		share.ID = uuid.NewString()
	}

	query := `
	INSERT INTO task_shares (id, task_id, shared_with_id, permission, shared_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	ON CONFLICT ON CONSTRAINT unique_task_share DO UPDATE
	SET permission = EXCLUDED.permission
	RETURNING ` + shareColumns

	row := r.pool.QueryRow(ctx, query,
		share.ID,
		share.TaskID,
		share.SharedWithID,
		string(share.Permission),
		nullTime(share.SharedAt),
	)
	stored, err := scanShare(row)
	if err != nil {
		if constraint, ok := constraintViolation(err, pgForeignKeyViolation); ok {
			if constraint == "fk_task_share_user" {
				return nil, domain.ErrUserNotFound
			}
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return stored, nil
}

func (r *shareRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM task_shares WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrShareNotFound
	}
	return nil
}

func (r *shareRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 ORDER BY shared_at, id`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	return collectShares(rows)
}

func (r *shareRepository) ListByUser(ctx context.Context, userID string) ([]domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE shared_with_id = $1 ORDER BY shared_at, id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectShares(rows)
}

func collectShares(rows pgx.Rows) ([]domain.Share, error) {
	defer rows.Close()

	var shares []domain.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, *share)
	}
	return shares, rows.Err()
}

func scanShare(row rowScanner) (*domain.Share, error) {
	var share domain.Share
	var permission string
	if err := row.Scan(
		&share.ID,
		&share.TaskID,
		&share.SharedWithID,
		&permission,
		&share.SharedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShareNotFound
		}
		return nil, err
	}
	share.Permission = domain.Permission(permission)
	return &share, nil
}
