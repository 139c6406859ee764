package indexing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/jobs"
	"github.com/inkwell-app/inkwell/pkg/embeddings"
	"github.com/inkwell-app/inkwell/pkg/logger"
	"github.com/inkwell-app/inkwell/pkg/markdown"
	"github.com/inkwell-app/inkwell/pkg/textsplitter"
)

// Worker polls for ready embedding tasks and processes them: load the
// document tree, render it to markdown, chunk, embed everything in one
// batched call, then atomically replace the document's chunk rows.
type Worker struct {
	worker   *jobs.Worker
	store    *Store
	blocks   *blocks.Repository
	embedder *embeddings.Service
	splitCfg textsplitter.Config
	cfg      *config.Config
	log      *slog.Logger
}

// NewWorker creates the embedding worker
func NewWorker(store *Store, blocksRepo *blocks.Repository, embedder *embeddings.Service, cfg *config.Config, log *slog.Logger) *Worker {
	w := &Worker{
		store:    store,
		blocks:   blocksRepo,
		embedder: embedder,
		splitCfg: textsplitter.Config{
			ChunkSize:    cfg.Indexing.ChunkSize,
			ChunkOverlap: cfg.Indexing.ChunkOverlap,
		},
		cfg: cfg,
		log: log.With(logger.Scope("indexing.worker")),
	}
	w.worker = jobs.NewWorker(jobs.WorkerConfig{
		Name:         "embedding-worker",
		PollInterval: cfg.Indexing.WorkerInterval,
		BatchSize:    cfg.Indexing.WorkerBatchSize,
	}, log, w.processBatch)
	return w
}

// Start begins polling for ready tasks.
func (w *Worker) Start(ctx context.Context) error {
	return w.worker.Start(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop(ctx context.Context) error {
	return w.worker.Stop(ctx)
}

// Metrics returns processing counters.
func (w *Worker) Metrics() jobs.WorkerMetrics {
	return w.worker.Metrics()
}

// DocumentChanged wakes the worker ahead of the next poll tick. Implements
// the transaction engine's best-effort change notification; the freshly
// upserted task is still debounced, so the early batch usually finds
// nothing, but a pending promoted task gets picked up sooner.
func (w *Worker) DocumentChanged(uuid.UUID) {
	w.worker.Poke()
}

func (w *Worker) processBatch(ctx context.Context) error {
	tasks, err := w.store.ClaimReady(ctx, w.cfg.Indexing.WorkerBatchSize)
	if err != nil {
		return err
	}

	for i := range tasks {
		task := &tasks[i]
		if err := w.processTask(ctx, task); err != nil {
			w.log.Error("embedding task failed", logger.Error(err),
				slog.String("task_id", task.ID.String()),
				slog.String("document_id", task.DocumentID.String()))
			// Record the failure; retries are incremented by the retry
			// trigger, not here.
			if markErr := w.store.SetFailed(ctx, task.ID, err.Error()); markErr != nil {
				w.log.Error("failed to mark task as failed", logger.Error(markErr),
					slog.String("task_id", task.ID.String()))
			}
			w.worker.IncrementFailure()
			TasksProcessed.WithLabelValues("failed").Inc()
			continue
		}
		w.worker.IncrementSuccess()
		TasksProcessed.WithLabelValues("completed").Inc()
	}
	return nil
}

func (w *Worker) processTask(ctx context.Context, task *EmbeddingTask) error {
	nodes, err := w.blocks.GetNodes(ctx, task.DocumentID, task.UserID)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	edges, err := w.blocks.GetEdges(ctx, task.DocumentID, task.UserID)
	if err != nil {
		return fmt.Errorf("load edges: %w", err)
	}

	tree := blocks.BuildTree(nodes, edges, w.log)
	doc := markdown.Render(treeToMarkdown(tree))

	// A document that strips to nothing needs no embedding call at all.
	if markdown.IsEmpty(doc) {
		w.log.Info("document has no content, skipping embedding",
			slog.String("document_id", task.DocumentID.String()))
		return w.store.SetCompleted(ctx, task.ID, "document empty, no embeddings generated")
	}

	chunks := textsplitter.Split(doc, w.splitCfg)

	// Chunks that strip to nothing carry no searchable text and are skipped.
	texts := make([]string, 0, len(chunks))
	raw := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		stripped := markdown.Strip(chunk)
		if stripped == "" {
			continue
		}
		texts = append(texts, chunk)
		raw = append(raw, stripped)
	}

	if len(texts) == 0 {
		return w.store.SetCompleted(ctx, task.ID, "no insertions")
	}

	// One batched call for the whole document. No database transaction is
	// held across this; the replace below is its own short transaction.
	embedStart := time.Now()
	vectors, err := w.embedder.EmbedDocuments(ctx, texts)
	EmbedDuration.Observe(time.Since(embedStart).Seconds())
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	ChunksEmbedded.Add(float64(len(texts)))
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(texts), len(vectors))
	}

	rows := make([]DocumentEmbedding, 0, len(texts))
	for i := range texts {
		// A noop provider returns nil vectors; those chunks have nothing
		// worth storing.
		if len(vectors[i]) == 0 {
			continue
		}
		rows = append(rows, DocumentEmbedding{
			DocumentID: task.DocumentID,
			UserID:     task.UserID,
			ChunkID:    i,
			ChunkText:  texts[i],
			RawText:    raw[i],
			Vector:     vectors[i],
		})
	}

	if len(rows) == 0 {
		return w.store.SetCompleted(ctx, task.ID, "no insertions")
	}

	if err := w.store.ReplaceEmbeddings(ctx, task.DocumentID, rows); err != nil {
		return fmt.Errorf("replace embeddings: %w", err)
	}

	w.log.Info("document re-indexed",
		slog.String("document_id", task.DocumentID.String()),
		slog.Int("chunks", len(rows)))

	return w.store.SetCompleted(ctx, task.ID, fmt.Sprintf("indexed %d chunks", len(rows)))
}

// blockPayload is the shape of a block's data payload the renderer
// understands; unknown fields are ignored.
type blockPayload struct {
	Type  string         `json:"type"`
	Text  string         `json:"text"`
	Props map[string]any `json:"props"`
}

// treeToMarkdown converts a reconstructed block tree into renderable nodes.
func treeToMarkdown(roots []*blocks.TreeNode) []*markdown.Node {
	out := make([]*markdown.Node, 0, len(roots))
	for _, t := range roots {
		var payload blockPayload
		if len(t.Data) > 0 {
			// A malformed payload renders as an empty paragraph rather
			// than failing the whole document.
			_ = json.Unmarshal(t.Data, &payload)
		}
		out = append(out, &markdown.Node{
			Type:     payload.Type,
			Text:     payload.Text,
			Props:    payload.Props,
			Children: treeToMarkdown(t.Children),
		})
	}
	return out
}
