package blocks

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/auth"
)

// Handler handles HTTP requests for the block graph
type Handler struct {
	svc *Service
}

// NewHandler creates a new blocks handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func requestScope(c echo.Context) (documentID, userID uuid.UUID, err error) {
	idStr, err := auth.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err = uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.ErrUnauthorized.WithMessage("invalid user ID in token")
	}
	documentID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperror.ErrBadRequest.WithMessage("invalid document ID")
	}
	return documentID, userID, nil
}

// SubmitTransaction handles POST /api/documents/:id/transactions
func (h *Handler) SubmitTransaction(c echo.Context) error {
	documentID, userID, err := requestScope(c)
	if err != nil {
		return err
	}

	req := &TransactionRequest{}
	if err := c.Bind(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	resp, err := h.svc.ApplyTransaction(c.Request().Context(), documentID, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// GetTree handles GET /api/documents/:id/tree
func (h *Handler) GetTree(c echo.Context) error {
	documentID, userID, err := requestScope(c)
	if err != nil {
		return err
	}

	tree, err := h.svc.GetTree(c.Request().Context(), documentID, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tree)
}
