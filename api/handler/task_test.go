package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/taskshare/domain"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	boltRepo "github.com/fastygo/taskshare/repository/boltdb"
	taskUC "github.com/fastygo/taskshare/usecase/task"
)

type envelope struct {
	Status string            `json:"status"`
	Code   string            `json:"code"`
	Data   json.RawMessage   `json:"data"`
	Meta   map[string]string `json:"meta"`
}

func newTaskHandler(t *testing.T) *TaskHandler {
	t.Helper()

	store, err := boltInfra.Open(filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	users := boltRepo.NewUserRepository(store)
	for _, id := range []string{"alice", "bob"} {
		if err := users.Upsert(context.Background(), &domain.User{ID: id, Name: id}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	logger := zaptest.NewLogger(t)
	uc := taskUC.New(boltRepo.NewTaskRepository(store), boltRepo.NewShareRepository(store), users, logger)
	return NewTaskHandler(uc, nil, logger)
}

func call(t *testing.T, fn fasthttp.RequestHandler, caller string, body interface{}, params map[string]string, headers map[string]string) (*fasthttp.RequestCtx, envelope) {
	t.Helper()

	var ctx fasthttp.RequestCtx
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		ctx.Request.SetBody(raw)
	}
	for k, v := range params {
		ctx.SetUserValue(k, v)
	}
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	if caller != "" {
		httpcontext.SetIdentity(&ctx, caller, "s-"+caller)
	}
	fn(&ctx)

	var env envelope
	if len(ctx.Response.Body()) > 0 {
		if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
			t.Fatalf("decode response %q: %v", ctx.Response.Body(), err)
		}
	}
	return &ctx, env
}

func createTask(t *testing.T, h *TaskHandler, owner string) domain.Task {
	t.Helper()
	ctx, env := call(t, h.CreateTask, owner, map[string]string{"title": "Plan", "due_date": "2026-11-01"}, nil, nil)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var task domain.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestTaskHandlerRequiresCaller(t *testing.T) {
	h := newTaskHandler(t)
	ctx, env := call(t, h.GetTasks, "", nil, nil, nil)
	if ctx.Response.StatusCode() != http.StatusUnauthorized || env.Code != string(domain.ErrCodeUnauthorized) {
		t.Fatalf("status = %d code = %s", ctx.Response.StatusCode(), env.Code)
	}
}

func TestTaskHandlerCreateAndGet(t *testing.T) {
	h := newTaskHandler(t)
	task := createTask(t, h, "alice")
	if task.Version != 1 || task.OwnerID != "alice" || task.DueDate == nil {
		t.Fatalf("unexpected task: %#v", task)
	}

	ctx, _ := call(t, h.GetTask, "alice", nil, map[string]string{"id": task.ID}, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("get status = %d", ctx.Response.StatusCode())
	}
	if etag := string(ctx.Response.Header.Peek(fasthttp.HeaderETag)); etag != `"1"` {
		t.Fatalf("etag = %s", etag)
	}

	ctx, env := call(t, h.GetTask, "bob", nil, map[string]string{"id": task.ID}, nil)
	if ctx.Response.StatusCode() != http.StatusForbidden {
		t.Fatalf("stranger status = %d", ctx.Response.StatusCode())
	}
	if env.Meta["action"] != string(domain.ActionRead) || env.Meta["task_id"] != task.ID {
		t.Fatalf("denial meta = %#v", env.Meta)
	}

	ctx, _ = call(t, h.GetTask, "alice", nil, map[string]string{"id": "missing"}, nil)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("missing status = %d", ctx.Response.StatusCode())
	}
}

func TestTaskHandlerUpdateVersionConflict(t *testing.T) {
	h := newTaskHandler(t)
	task := createTask(t, h, "alice")
	params := map[string]string{"id": task.ID}

	ctx, env := call(t, h.UpdateTask, "alice", map[string]interface{}{"title": "v2", "version": 1}, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("update status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var updated domain.Task
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Version != 2 || updated.Title != "v2" {
		t.Fatalf("unexpected task: %#v", updated)
	}

	ctx, env = call(t, h.UpdateTask, "alice", map[string]interface{}{"status": "completed"}, params, map[string]string{"If-Match": `"1"`})
	if ctx.Response.StatusCode() != http.StatusConflict || env.Code != string(domain.ErrCodeVersionConflict) {
		t.Fatalf("stale status = %d code = %s", ctx.Response.StatusCode(), env.Code)
	}
	if env.Meta["current_version"] != strconv.Itoa(2) {
		t.Fatalf("conflict meta = %#v", env.Meta)
	}

	ctx, _ = call(t, h.UpdateTask, "alice", map[string]interface{}{"status": "completed"}, params, map[string]string{"If-Match": `W/"2"`})
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("if-match update status = %d", ctx.Response.StatusCode())
	}

	ctx, _ = call(t, h.UpdateTask, "alice", map[string]interface{}{"status": "archived"}, params, nil)
	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("invalid status update = %d", ctx.Response.StatusCode())
	}
}

func TestTaskHandlerSharing(t *testing.T) {
	h := newTaskHandler(t)
	task := createTask(t, h, "alice")
	params := map[string]string{"id": task.ID}

	ctx, env := call(t, h.ShareTask, "alice", map[string]string{"shared_with_id": "bob", "permission": "edit"}, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("share status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var share domain.Share
	if err := json.Unmarshal(env.Data, &share); err != nil {
		t.Fatalf("decode share: %v", err)
	}

	ctx, env = call(t, h.ShareTask, "alice", map[string]string{"shared_with_id": "alice", "permission": "edit"}, params, nil)
	if ctx.Response.StatusCode() != http.StatusConflict || env.Code != string(domain.ErrCodeInvalidShare) {
		t.Fatalf("self share status = %d code = %s", ctx.Response.StatusCode(), env.Code)
	}

	ctx, env = call(t, h.ListShares, "alice", nil, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("list shares status = %d", ctx.Response.StatusCode())
	}
	var entries []domain.ShareEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].SharedWith.Name != "bob" {
		t.Fatalf("entries = %#v", entries)
	}

	ctx, _ = call(t, h.GetTasks, "bob", nil, nil, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("list status = %d", ctx.Response.StatusCode())
	}

	ctx, _ = call(t, h.DeleteTask, "bob", nil, params, nil)
	if ctx.Response.StatusCode() != http.StatusForbidden {
		t.Fatalf("editor delete status = %d", ctx.Response.StatusCode())
	}

	ctx, _ = call(t, h.RemoveShare, "alice", nil, map[string]string{"id": task.ID, "shareId": share.ID}, nil)
	if ctx.Response.StatusCode() != http.StatusNoContent {
		t.Fatalf("unshare status = %d", ctx.Response.StatusCode())
	}

	ctx, _ = call(t, h.DeleteTask, "alice", nil, params, nil)
	if ctx.Response.StatusCode() != http.StatusNoContent {
		t.Fatalf("delete status = %d", ctx.Response.StatusCode())
	}
}

func TestIfMatchVersion(t *testing.T) {
	cases := []struct {
		header  string
		want    int
		present bool
		invalid bool
	}{
		{header: ""},
		{header: "*"},
		{header: `"4"`, want: 4, present: true},
		{header: `W/"7"`, want: 7, present: true},
		{header: "3", want: 3, present: true},
		{header: `"abc"`, invalid: true},
		{header: "0", invalid: true},
	}
	for _, tc := range cases {
		var ctx fasthttp.RequestCtx
		if tc.header != "" {
			ctx.Request.Header.Set(fasthttp.HeaderIfMatch, tc.header)
		}
		got, err := ifMatchVersion(&ctx)
		if tc.invalid {
			if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("%q: expected invalid, got %v", tc.header, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.header, err)
		}
		if (got != nil) != tc.present || (got != nil && *got != tc.want) {
			t.Fatalf("%q: got %v", tc.header, got)
		}
	}
}

func TestTaskHandlerUpdateClearsDueDateAndDescription(t *testing.T) {
	h := newTaskHandler(t)
	task := createTask(t, h, "alice")
	params := map[string]string{"id": task.ID}

	ctx, _ := call(t, h.UpdateTask, "alice", map[string]interface{}{"description": "notes"}, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("seed description status = %d", ctx.Response.StatusCode())
	}

	ctx, env := call(t, h.UpdateTask, "alice", map[string]interface{}{"due_date": nil, "description": nil}, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("clear status = %d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var cleared domain.Task
	if err := json.Unmarshal(env.Data, &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared.DueDate != nil || cleared.Description != "" || cleared.Version != 3 {
		t.Fatalf("unexpected task after clear: %#v", cleared)
	}

	ctx, _ = call(t, h.UpdateTask, "alice", map[string]interface{}{"title": "  Trimmed  "}, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("title status = %d", ctx.Response.StatusCode())
	}
	ctx, env = call(t, h.GetTask, "alice", nil, params, nil)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("get status = %d", ctx.Response.StatusCode())
	}
	var details domain.TaskDetails
	if err := json.Unmarshal(env.Data, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Title != "Trimmed" {
		t.Fatalf("title = %q", details.Title)
	}
}
