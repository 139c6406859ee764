package blocks

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/auth"
)

// RegisterRoutes registers block graph routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	g := e.Group("/api/documents/:id")
	g.Use(authMiddleware.RequireAuth())

	g.POST("/transactions", h.SubmitTransaction)
	g.GET("/tree", h.GetTree)
}
