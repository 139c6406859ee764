package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// MetricsHandler handles embedding task metrics requests
type MetricsHandler struct {
	db *bun.DB
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(db *bun.DB) *MetricsHandler {
	return &MetricsHandler{
		db: db,
	}
}

// TaskMetrics contains aggregate counts of the embedding task queue
type TaskMetrics struct {
	Debounced   int64  `json:"debounced"`
	Ready       int64  `json:"ready"`
	Completed   int64  `json:"completed"`
	Failed      int64  `json:"failed"`
	Total       int64  `json:"total"`
	LastHour    int64  `json:"last_hour"`
	Last24Hours int64  `json:"last_24_hours"`
	Timestamp   string `json:"timestamp"`
}

// TaskQueueMetrics returns aggregate counts for the embedding task queue
func (h *MetricsHandler) TaskQueueMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'debounced') as debounced,
			COUNT(*) FILTER (WHERE status = 'ready') as ready,
			COUNT(*) FILTER (WHERE status = 'completed') as completed,
			COUNT(*) FILTER (WHERE status = 'failed') as failed,
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '1 hour') as last_hour,
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours') as last_24_hours
		FROM journal.embedding_tasks`

	var row struct {
		Debounced   int64 `bun:"debounced"`
		Ready       int64 `bun:"ready"`
		Completed   int64 `bun:"completed"`
		Failed      int64 `bun:"failed"`
		Total       int64 `bun:"total"`
		LastHour    int64 `bun:"last_hour"`
		Last24Hours int64 `bun:"last_24_hours"`
	}

	if err := h.db.NewRaw(query).Scan(ctx, &row); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TaskMetrics{
		Debounced:   row.Debounced,
		Ready:       row.Ready,
		Completed:   row.Completed,
		Failed:      row.Failed,
		Total:       row.Total,
		LastHour:    row.LastHour,
		Last24Hours: row.Last24Hours,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
