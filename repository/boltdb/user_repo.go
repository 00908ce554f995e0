package boltdb

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskshare/domain"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/repository"
)

type userRepository struct {
	store *boltInfra.Store
	now   func() time.Time
}

// NewUserRepository instantiates a Bolt-backed user repository.
func NewUserRepository(store *boltInfra.Store) repository.UserRepository {
	return &userRepository{store: store, now: utcNow}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user domain.User
	err := r.store.View(func(tx *bolt.Tx) error {
		found, err := boltInfra.GetJSON(tx.Bucket(boltInfra.BucketUsers), id, &user)
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	if user.Status == "" {
		user.Status = "active"
	}

	return r.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltInfra.BucketUsers)

		if user.Email != "" {
			if err := b.ForEach(func(k, v []byte) error {
				if string(k) == user.ID {
					return nil
				}
				var other domain.User
				if err := decode(v, &other); err != nil {
					return err
				}
				if strings.EqualFold(other.Email, user.Email) {
					return domain.Invalid("email", "already registered")
				}
				return nil
			}); err != nil {
				return err
			}
		}

		var existing domain.User
		found, err := boltInfra.GetJSON(b, user.ID, &existing)
		if err != nil {
			return err
		}
		now := r.now()
		switch {
		case found:
			user.CreatedAt = existing.CreatedAt
		case user.CreatedAt.IsZero():
			user.CreatedAt = now
		}
		user.UpdatedAt = now
		return boltInfra.PutJSON(b, user.ID, user)
	})
}

// List returns users ordered by name then id. A non-positive limit returns
// everything from offset on.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var users []domain.User
	err := r.store.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltInfra.BucketUsers).ForEach(func(_, v []byte) error {
			var user domain.User
			if err := decode(v, &user); err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(users) {
		return nil, nil
	}
	end := len(users)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return users[offset:end], nil
}

// Delete removes the user, the tasks they own and every share granted to
// them in one transaction.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(boltInfra.BucketUsers)
		if users.Get([]byte(id)) == nil {
			return domain.ErrUserNotFound
		}

		var owned []string
		if err := forEachTask(tx, func(task domain.Task) {
			if task.OwnerID == id {
				owned = append(owned, task.ID)
			}
		}); err != nil {
			return err
		}
		for _, taskID := range owned {
			if err := deleteTask(tx, taskID); err != nil {
				return err
			}
		}

		var granted []domain.Share
		if err := tx.Bucket(boltInfra.BucketShares).ForEach(func(_, v []byte) error {
			var share domain.Share
			if err := decode(v, &share); err != nil {
				return err
			}
			if share.SharedWithID == id {
				granted = append(granted, share)
			}
			return nil
		}); err != nil {
			return err
		}
		pairs := tx.Bucket(boltInfra.BucketSharePairs)
		shares := tx.Bucket(boltInfra.BucketShares)
		for _, share := range granted {
			if err := pairs.Delete(pairKey(share.TaskID, share.SharedWithID)); err != nil {
				return err
			}
			if err := shares.Delete([]byte(share.ID)); err != nil {
				return err
			}
		}

		return users.Delete([]byte(id))
	})
}

func decode(raw []byte, v interface{}) error {
	return json.Unmarshal(raw, v)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
