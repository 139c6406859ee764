package indexing

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/auth"
)

// RegisterRoutes registers the internal indexing routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	g := e.Group("/api/internal/indexing")
	g.Use(authMiddleware.RequireServiceToken())

	g.GET("/tasks/:id", h.GetTask)
	g.PATCH("/tasks/:id", h.UpdateTaskStatus)
	g.POST("/triggers/:name", h.RunTrigger)
	g.GET("/worker", h.WorkerMetrics)
}
