package indexing_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/internal/testutil"
	"github.com/inkwell-app/inkwell/pkg/embeddings"
)

// fakeEmbedder returns fixed-dimension vectors and counts calls.
type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := f.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding provider unavailable")
	}
	out := make([][]float32, len(docs))
	for i := range docs {
		vec := make([]float32, embeddings.EmbeddingDimension)
		for j := range vec {
			vec[j] = float32(i + 1)
		}
		out[i] = vec
	}
	return out, nil
}

type workerFixture struct {
	worker   *indexing.Worker
	store    *indexing.Store
	embedder *fakeEmbedder
	blocks   *blocks.Repository
	db       *bun.DB
	doc      *documents.Document
	user     uuid.UUID
	ctx      context.Context
}

func setupWorker(t *testing.T) *workerFixture {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	tdb, err := testutil.SetupTestDB(ctx, "worker")
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(tdb.Close)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := indexing.NewStore(tdb.DB, log)
	blocksRepo := blocks.NewRepository(tdb.DB, log)
	embedder := &fakeEmbedder{}
	svc := embeddings.NewServiceWithClient(embedder, log)

	worker := indexing.NewWorker(store, blocksRepo, svc, tdb.Config, log)

	userID := uuid.New()
	doc := &documents.Document{UserID: userID, Title: "notebook"}
	require.NoError(t, documents.NewRepository(tdb.DB, log).Create(ctx, doc))

	return &workerFixture{
		worker:   worker,
		store:    store,
		embedder: embedder,
		blocks:   blocksRepo,
		db:       tdb.DB,
		doc:      doc,
		user:     userID,
		ctx:      ctx,
	}
}

func (f *workerFixture) addBlock(t *testing.T, text string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	data, _ := json.Marshal(map[string]any{"type": "paragraph", "text": text})
	node := &blocks.BlockNode{
		ID:         id,
		DocumentID: f.doc.ID,
		UserID:     f.user,
		Data:       data,
	}
	require.NoError(t, f.blocks.UpsertNode(f.ctx, f.db, node, false, true))
	return id
}

// makeReady creates a ready task for the fixture document.
func (f *workerFixture) makeReady(t *testing.T) uuid.UUID {
	t.Helper()
	ref, err := f.store.UpsertDebounced(f.ctx, nil, f.doc.ID, f.user)
	require.NoError(t, err)
	_, err = f.db.NewRaw(
		"UPDATE journal.embedding_tasks SET status = 'ready' WHERE id = ?", ref.ID).Exec(f.ctx)
	require.NoError(t, err)
	return ref.ID
}

func (f *workerFixture) runOnce(t *testing.T) {
	t.Helper()
	before := f.worker.Metrics().Processed

	// Drive one batch through the poll loop and stop.
	require.NoError(t, f.worker.Start(f.ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
		defer cancel()
		require.NoError(t, f.worker.Stop(stopCtx))
	}()
	f.worker.DocumentChanged(f.doc.ID)

	require.Eventually(t, func() bool {
		return f.worker.Metrics().Processed > before
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWorker_IndexesDocument(t *testing.T) {
	f := setupWorker(t)
	f.addBlock(t, "The first morning entry, full of intent.")
	taskID := f.makeReady(t)

	f.runOnce(t)

	task, err := f.store.GetByID(f.ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, indexing.StatusCompleted, task.Status)
	assert.Equal(t, 1, f.embedder.calls, "one batched embedding call per document")

	count, err := f.store.CountEmbeddings(f.ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWorker_EmptyDocumentShortCircuits(t *testing.T) {
	f := setupWorker(t)
	taskID := f.makeReady(t)

	f.runOnce(t)

	task, err := f.store.GetByID(f.ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, indexing.StatusCompleted, task.Status)
	assert.NotEmpty(t, task.Metadata)
	assert.Zero(t, f.embedder.calls, "no embedding call for empty content")

	count, err := f.store.CountEmbeddings(f.ctx, f.doc.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWorker_FailureRecordsMessageWithoutRetries(t *testing.T) {
	f := setupWorker(t)
	f.embedder.fail = true
	f.addBlock(t, "This entry will fail to embed.")
	taskID := f.makeReady(t)

	f.runOnce(t)

	task, err := f.store.GetByID(f.ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, indexing.StatusFailed, task.Status)
	assert.Contains(t, task.Metadata, "embedding provider unavailable")
	assert.Zero(t, task.Retries, "retries grow only via the retry trigger")
}

func TestWorker_ReplacesPriorRun(t *testing.T) {
	f := setupWorker(t)
	blockID := f.addBlock(t, "original text")
	f.makeReady(t)
	f.runOnce(t)

	count, err := f.store.CountEmbeddings(f.ctx, f.doc.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Edit the block and run again; the old rows must be superseded.
	data, _ := json.Marshal(map[string]any{"type": "paragraph", "text": "rewritten"})
	node := &blocks.BlockNode{
		ID:         blockID,
		DocumentID: f.doc.ID,
		UserID:     f.user,
		Data:       data,
	}
	require.NoError(t, f.blocks.UpsertNode(f.ctx, f.db, node, false, true))
	f.makeReady(t)
	f.runOnce(t)

	rows := []indexing.DocumentEmbedding{}
	require.NoError(t, f.db.NewSelect().
		Model(&rows).
		Where("document_id = ?", f.doc.ID).
		Scan(f.ctx))
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].ChunkText, "rewritten")
}
