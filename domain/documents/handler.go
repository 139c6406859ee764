package documents

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/auth"
)

// Handler handles HTTP requests for documents
type Handler struct {
	svc *Service
}

// NewHandler creates a new documents handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// getUserID extracts and parses the authenticated user's ID.
func getUserID(c echo.Context) (uuid.UUID, error) {
	idStr, err := auth.GetUserID(c)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized.WithMessage("invalid user ID in token")
	}
	return userID, nil
}

// pathUUID parses a UUID path parameter.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ErrBadRequest.WithMessage("invalid " + name)
	}
	return id, nil
}

// Create handles POST /api/documents
func (h *Handler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	req := &CreateDocumentRequest{}
	if err := c.Bind(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	doc, err := h.svc.Create(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, doc)
}

// List handles GET /api/documents
func (h *Handler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return apperror.ErrBadRequest.WithMessage("invalid limit")
		}
	}

	result, err := h.svc.List(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// GetByID handles GET /api/documents/:id
func (h *Handler) GetByID(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	doc, err := h.svc.Get(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}

// Update handles PATCH /api/documents/:id
func (h *Handler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	req := &UpdateDocumentRequest{}
	if err := c.Bind(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	doc, err := h.svc.Rename(c.Request().Context(), id, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /api/documents/:id
func (h *Handler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id, userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
