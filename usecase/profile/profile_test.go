package profile

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
)

type memoryUsers struct {
	users map[string]domain.User
	err   error
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (m *memoryUsers) List(_ context.Context, _, _ int) ([]domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUsers) Upsert(_ context.Context, user *domain.User) error {
	if m.err != nil {
		return m.err
	}
	m.users[user.ID] = *user
	return nil
}

func TestUpdateProfileValidatesAndKeepsStatus(t *testing.T) {
	users := &memoryUsers{users: map[string]domain.User{
		"alice": {ID: "alice", Name: "alice", Status: "suspended"},
	}}
	uc := New(users, zap.NewNop())
	ctx := context.Background()

	updated, err := uc.UpdateProfile(ctx, &domain.User{ID: "alice", Name: "  Alice ", Email: "alice@example.com", Status: "active"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alice" || updated.Status != "suspended" {
		t.Fatalf("unexpected profile: %#v", updated)
	}

	if _, err := uc.UpdateProfile(ctx, &domain.User{ID: "alice", Name: ""}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("empty name: expected invalid, got %v", err)
	}
	if _, err := uc.UpdateProfile(ctx, &domain.User{ID: "alice", Name: "A", Email: "nope"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("bad email: expected invalid, got %v", err)
	}
	if _, err := uc.UpdateProfile(ctx, &domain.User{Name: "A"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing caller: expected unauthorized, got %v", err)
	}
}

func TestUpdateProfileCreatesMissingUser(t *testing.T) {
	users := &memoryUsers{users: map[string]domain.User{}}
	uc := New(users, nil)

	if _, err := uc.UpdateProfile(context.Background(), &domain.User{ID: "bob", Name: "Bob"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := uc.GetProfile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "active" {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestUpdateProfileSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("store offline")
	uc := New(&memoryUsers{users: map[string]domain.User{}, err: boom}, nil)

	if _, err := uc.UpdateProfile(context.Background(), &domain.User{ID: "alice", Name: "Alice"}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
