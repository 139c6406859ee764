package indexing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/inkwell-app/inkwell/pkg/apperror"
)

// Handler exposes the internal indexing endpoints. All routes require the
// service token; they are operational surface, not end-user API.
type Handler struct {
	store    *Store
	triggers *Triggers
	worker   *Worker
}

// NewHandler creates a new indexing handler
func NewHandler(store *Store, triggers *Triggers, worker *Worker) *Handler {
	return &Handler{store: store, triggers: triggers, worker: worker}
}

// GetTask handles GET /api/internal/indexing/tasks/:id
func (h *Handler) GetTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid task ID")
	}

	task, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus handles PATCH /api/internal/indexing/tasks/:id. Only the
// worker-side terminal transitions are allowed here; the time-based ones go
// through the triggers.
func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid task ID")
	}

	req := &UpdateTaskStatusRequest{}
	if err := c.Bind(req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	ctx := c.Request().Context()
	switch req.Status {
	case StatusCompleted:
		err = h.store.SetCompleted(ctx, id, req.Metadata)
	case StatusFailed:
		err = h.store.SetFailed(ctx, id, req.Metadata)
	default:
		return apperror.ErrBadRequest.WithMessage("status must be completed or failed")
	}
	if err != nil {
		return err
	}

	task, err := h.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// RunTrigger handles POST /api/internal/indexing/triggers/:name with name
// one of promote, retry, fail-stuck.
func (h *Handler) RunTrigger(c echo.Context) error {
	result, err := h.triggers.RunTrigger(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// WorkerMetrics handles GET /api/internal/indexing/worker
func (h *Handler) WorkerMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"running": h.worker.worker.IsRunning(),
		"metrics": h.worker.Metrics(),
	})
}
