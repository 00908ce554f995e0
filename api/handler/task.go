package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskshare/api/transport"
	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	taskUC "github.com/fastygo/taskshare/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List owned and shared tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, userID, taskUC.ListFilter{
		Status: string(ctx.QueryArgs().Peek("status")),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	due, err := transport.ParseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, userID, taskUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		DueDate:     due,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	setETag(ctx, created.Version)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task with its shares
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	details, err := h.uc.GetTask(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	setETag(ctx, details.Version)
	h.respondSuccess(ctx, http.StatusOK, details)
}

// @Summary Update task
// @Description Partial update. The expected version comes from the body "version" field or the If-Match header.
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	var req transport.TaskUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	expected := req.Version
	if expected == nil {
		if expected, err = ifMatchVersion(ctx); err != nil {
			h.respondError(ctx, err)
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, pathParam(ctx, "id"), userID, patch, expected)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	setETag(ctx, updated.Version)
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, pathParam(ctx, "id"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Share task with a user
// @Tags shares
// @Router /api/v1/tasks/{id}/share [post]
func (h *TaskHandler) ShareTask(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	var req transport.ShareRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	share, err := h.uc.ShareTask(stdCtx, pathParam(ctx, "id"), userID, strings.TrimSpace(req.SharedWithID), domain.Permission(req.Permission))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, share)
}

// @Summary Remove a share
// @Tags shares
// @Router /api/v1/tasks/{id}/share/{shareId} [delete]
func (h *TaskHandler) RemoveShare(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RemoveShare(stdCtx, pathParam(ctx, "id"), pathParam(ctx, "shareId"), userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary List task shares
// @Tags shares
// @Router /api/v1/tasks/{id}/shares [get]
func (h *TaskHandler) ListShares(ctx *fasthttp.RequestCtx) {
	userID := h.callerID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.uc.ListShares(stdCtx, pathParam(ctx, "id"), userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}

// ifMatchVersion reads an expected version from If-Match. Both "3" and
// W/"3" are accepted; an absent header means no version check.
func ifMatchVersion(ctx *fasthttp.RequestCtx) (*int, error) {
	raw := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderIfMatch)))
	if raw == "" || raw == "*" {
		return nil, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return nil, domain.Invalid("If-Match", "must be a task version")
	}
	return &version, nil
}

func setETag(ctx *fasthttp.RequestCtx, version int) {
	ctx.Response.Header.Set(fasthttp.HeaderETag, strconv.Quote(strconv.Itoa(version)))
}
