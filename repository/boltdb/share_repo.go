package boltdb

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskshare/domain"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/repository"
)

// pairKey indexes shares by (task, grantee); it doubles as the uniqueness constraint.
func pairKey(taskID, userID string) []byte {
	return []byte(taskID + "\x00" + userID)
}

type shareRepository struct {
	store *boltInfra.Store
	now   func() time.Time
}

// NewShareRepository returns a Bolt-backed ShareRepository.
func NewShareRepository(store *boltInfra.Store) repository.ShareRepository {
	return &shareRepository{store: store, now: utcNow}
}

func (r *shareRepository) GetByID(ctx context.Context, id string) (*domain.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var share *domain.Share
	err := r.store.View(func(tx *bolt.Tx) error {
		var err error
		share, err = loadShare(tx, id)
		return err
	})
	return share, err
}

func (r *shareRepository) Get(ctx context.Context, taskID, userID string) (*domain.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var share *domain.Share
	err := r.store.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(boltInfra.BucketSharePairs).Get(pairKey(taskID, userID))
		if id == nil {
			return domain.ErrShareNotFound
		}
		var err error
		share, err = loadShare(tx, string(id))
		return err
	})
	return share, err
}

// Upsert checks the pair index and writes in the same transaction, so two
// concurrent grants for one pair end up as a single row.
func (r *shareRepository) Upsert(ctx context.Context, share *domain.Share) (*domain.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if share == nil || share.TaskID == "" || share.SharedWithID == "" {
		return nil, domain.ErrInvalidPayload
	}

	var stored domain.Share
	err := r.store.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltInfra.BucketTasks).Get([]byte(share.TaskID)) == nil {
			return domain.ErrTaskNotFound
		}
		if tx.Bucket(boltInfra.BucketUsers).Get([]byte(share.SharedWithID)) == nil {
			return domain.ErrUserNotFound
		}

		pairs := tx.Bucket(boltInfra.BucketSharePairs)
		shares := tx.Bucket(boltInfra.BucketShares)
		key := pairKey(share.TaskID, share.SharedWithID)

		if existingID := pairs.Get(key); existingID != nil {
			found, err := boltInfra.GetJSON(shares, string(existingID), &stored)
			if err != nil {
				return err
			}
			if found {
				stored.Permission = share.Permission
				return boltInfra.PutJSON(shares, stored.ID, &stored)
			}
		}

		stored = *share
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		if stored.SharedAt.IsZero() {
			stored.SharedAt = r.now()
		}
		if err := pairs.Put(key, []byte(stored.ID)); err != nil {
			return err
		}
		return boltInfra.PutJSON(shares, stored.ID, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *shareRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Update(func(tx *bolt.Tx) error {
		share, err := loadShare(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(boltInfra.BucketSharePairs).Delete(pairKey(share.TaskID, share.SharedWithID)); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketShares).Delete([]byte(id))
	})
}

func (r *shareRepository) ListByTask(ctx context.Context, taskID string) ([]domain.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var shares []domain.Share
	err := r.store.View(func(tx *bolt.Tx) error {
		_, ids := scanPairs(tx.Bucket(boltInfra.BucketSharePairs), taskID)
		for _, id := range ids {
			share, err := loadShare(tx, id)
			if err != nil {
				return err
			}
			shares = append(shares, *share)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortShares(shares)
	return shares, nil
}

func (r *shareRepository) ListByUser(ctx context.Context, userID string) ([]domain.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var shares []domain.Share
	err := r.store.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketShares).ForEach(func(_, v []byte) error {
			var share domain.Share
			if err := decode(v, &share); err != nil {
				return err
			}
			if share.SharedWithID == userID {
				shares = append(shares, share)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortShares(shares)
	return shares, nil
}

func loadShare(tx *bolt.Tx, id string) (*domain.Share, error) {
	var share domain.Share
	found, err := boltInfra.GetJSON(tx.Bucket(boltInfra.BucketShares), id, &share)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrShareNotFound
	}
	return &share, nil
}

// scanPairs collects index keys and share ids for a task. Keys are copied so
// callers may delete them after the cursor is done.
func scanPairs(pairs *bolt.Bucket, taskID string) ([][]byte, []string) {
	prefix := []byte(taskID + "\x00")
	var (
		keys [][]byte
		ids  []string
	)
	c := pairs.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
		ids = append(ids, string(v))
	}
	return keys, ids
}

func sortShares(shares []domain.Share) {
	sort.SliceStable(shares, func(i, j int) bool {
		if !shares[i].SharedAt.Equal(shares[j].SharedAt) {
			return shares[i].SharedAt.Before(shares[j].SharedAt)
		}
		return shares[i].ID < shares[j].ID
	})
}
