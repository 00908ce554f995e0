package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/taskshare/domain"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/repository"
	boltRepo "github.com/fastygo/taskshare/repository/boltdb"
	redisRepo "github.com/fastygo/taskshare/repository/redis"
)

type fixture struct {
	uc       *UseCase
	users    repository.UserRepository
	tasks    repository.TaskRepository
	shares   repository.ShareRepository
	sessions repository.SessionRepository
	ctx      context.Context
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := boltInfra.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	users := redisRepo.NewUserCache(boltRepo.NewUserRepository(store), client, time.Minute)
	for _, id := range ids {
		if err := users.Upsert(context.Background(), &domain.User{ID: id, Name: "User " + id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	sessions := redisRepo.NewSessionRepository(client, time.Hour)

	return &fixture{
		uc:       New(users, sessions, zaptest.NewLogger(t)),
		users:    users,
		tasks:    boltRepo.NewTaskRepository(store),
		shares:   boltRepo.NewShareRepository(store),
		sessions: sessions,
		ctx:      context.Background(),
	}
}

func TestListUsersReturnsSummaries(t *testing.T) {
	f := newFixture(t, "carol", "alice", "bob")

	all, err := f.uc.ListUsers(f.ctx, "alice", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "alice" || all[2].ID != "carol" {
		t.Fatalf("unexpected users: %#v", all)
	}

	page, err := f.uc.ListUsers(f.ctx, "alice", 1, 1)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "bob" {
		t.Fatalf("unexpected page: %#v", page)
	}

	if _, err := f.uc.ListUsers(f.ctx, "", 0, 0); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGetUserReturnsSummary(t *testing.T) {
	f := newFixture(t, "alice", "bob")

	got, err := f.uc.GetUser(f.ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "bob" || got.Name != "User bob" || got.Email != "bob@example.com" {
		t.Fatalf("unexpected summary: %#v", got)
	}

	if _, err := f.uc.GetUser(f.ctx, "alice", "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteUserIsSelfOnly(t *testing.T) {
	f := newFixture(t, "alice", "bob")

	if err := f.uc.DeleteUser(f.ctx, "alice", "", "bob"); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.users.GetByID(f.ctx, "bob"); err != nil {
		t.Fatalf("bob should survive: %v", err)
	}
}

func TestDeleteUserCascadesTasksSharesAndSession(t *testing.T) {
	f := newFixture(t, "alice", "bob")

	owned, err := f.tasks.Create(f.ctx, &domain.Task{OwnerID: "alice", Title: "mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.shares.Upsert(f.ctx, &domain.Share{TaskID: owned.ID, SharedWithID: "bob", Permission: domain.PermissionView}); err != nil {
		t.Fatalf("share owned: %v", err)
	}
	foreign, err := f.tasks.Create(f.ctx, &domain.Task{OwnerID: "bob", Title: "theirs"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.shares.Upsert(f.ctx, &domain.Share{TaskID: foreign.ID, SharedWithID: "alice", Permission: domain.PermissionEdit}); err != nil {
		t.Fatalf("share foreign: %v", err)
	}

	session := &domain.Session{ID: "s-alice", UserID: "alice", ExpiresAt: time.Now().Add(time.Hour)}
	if err := f.sessions.Save(f.ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}
	// Warm the cache so the delete has to evict it.
	if _, err := f.users.GetByID(f.ctx, "alice"); err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := f.uc.DeleteUser(f.ctx, "alice", session.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.users.GetByID(f.ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user gone, got %v", err)
	}
	if _, err := f.tasks.GetByID(f.ctx, owned.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected owned task gone, got %v", err)
	}
	if shares, err := f.shares.ListByUser(f.ctx, "bob"); err != nil || len(shares) != 0 {
		t.Fatalf("shares on deleted task remain: %#v, %v", shares, err)
	}
	if shares, err := f.shares.ListByUser(f.ctx, "alice"); err != nil || len(shares) != 0 {
		t.Fatalf("shares granted to deleted user remain: %#v, %v", shares, err)
	}
	if _, err := f.tasks.GetByID(f.ctx, foreign.ID); err != nil {
		t.Fatalf("bob's task should survive: %v", err)
	}
	if _, err := f.sessions.Get(f.ctx, session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session revoked, got %v", err)
	}

	if err := f.uc.DeleteUser(f.ctx, "alice", "", "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
