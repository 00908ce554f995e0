package router

import (
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskshare/api/handler"
	"github.com/fastygo/taskshare/internal/infrastructure/monitor"
)

type healthy struct{}

func (healthy) GetStatus() monitor.Status {
	return monitor.Status{Driver: "bolt", Storage: true, Redis: true}
}

func TestRoutes(t *testing.T) {
	var guarded []string
	deny := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			guarded = append(guarded, string(ctx.Path()))
			ctx.SetStatusCode(http.StatusUnauthorized)
		}
	}
	r := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(nil, nil, nil, 0, 0),
		Profile: apiHandler.NewProfileHandler(nil, nil, nil),
		Task:    apiHandler.NewTaskHandler(nil, nil, nil),
		User:    apiHandler.NewUserHandler(nil, nil, nil),
		Health:  apiHandler.NewHealthHandler(healthy{}, nil, nil),
	}, deny)

	cases := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"POST", "/api/v1/auth/logout", http.StatusUnauthorized},
		{"GET", "/api/v1/profile", http.StatusUnauthorized},
		{"GET", "/api/v1/users", http.StatusUnauthorized},
		{"GET", "/api/v1/users/u1", http.StatusUnauthorized},
		{"DELETE", "/api/v1/users/u1", http.StatusUnauthorized},
		{"PATCH", "/api/v1/users/u1", http.StatusMethodNotAllowed},
		{"GET", "/api/v1/tasks", http.StatusUnauthorized},
		{"POST", "/api/v1/tasks", http.StatusUnauthorized},
		{"GET", "/api/v1/tasks/t1", http.StatusUnauthorized},
		{"PATCH", "/api/v1/tasks/t1", http.StatusUnauthorized},
		{"DELETE", "/api/v1/tasks/t1", http.StatusUnauthorized},
		{"POST", "/api/v1/tasks/t1/share", http.StatusUnauthorized},
		{"DELETE", "/api/v1/tasks/t1/share/s1", http.StatusUnauthorized},
		{"GET", "/api/v1/tasks/t1/shares", http.StatusUnauthorized},
		{"PUT", "/api/v1/tasks/t1", http.StatusMethodNotAllowed},
		{"GET", "/api/v1/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetMethod(tc.method)
		ctx.Request.SetRequestURI(tc.path)
		r.Handler(&ctx)
		if ctx.Response.StatusCode() != tc.want {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.path, ctx.Response.StatusCode(), tc.want)
		}
	}
	if len(guarded) != 13 {
		t.Fatalf("guarded routes = %d, want 13", len(guarded))
	}
}
