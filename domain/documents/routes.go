package documents

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/auth"
)

// RegisterRoutes registers document routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	g := e.Group("/api/documents")
	g.Use(authMiddleware.RequireAuth())

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
