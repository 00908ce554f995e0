package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskshare/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	User    *apiHandler.UserHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	// User directory
	r.GET("/api/v1/users", authMiddleware(handlers.User.ListUsers))
	r.GET("/api/v1/users/{id}", authMiddleware(handlers.User.GetUser))
	r.DELETE("/api/v1/users/{id}", authMiddleware(handlers.User.DeleteUser))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PATCH("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	// Sharing
	r.POST("/api/v1/tasks/{id}/share", authMiddleware(handlers.Task.ShareTask))
	r.DELETE("/api/v1/tasks/{id}/share/{shareId}", authMiddleware(handlers.Task.RemoveShare))
	r.GET("/api/v1/tasks/{id}/shares", authMiddleware(handlers.Task.ListShares))

	return r
}
