package indexing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// Store owns the embedding task table and the per-document chunk rows. The
// bulk trigger methods are the external contract of the task state machine:
// each one is a single conditional UPDATE, idempotent on any cadence.
type Store struct {
	db  bun.IDB
	log *slog.Logger
}

// NewStore creates a new indexing store
func NewStore(db bun.IDB, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With(logger.Scope("indexing.store")),
	}
}

// UpsertDebounced marks a document dirty: it inserts a fresh debounced task,
// or flips the existing non-completed task back to debounced with a
// refreshed updated_at. The conflict target is the partial unique index on
// non-completed tasks, so a completed task is never touched and a later edit
// creates a new task alongside it.
func (s *Store) UpsertDebounced(ctx context.Context, db bun.IDB, documentID, userID uuid.UUID) (*blocks.TaskRef, error) {
	if db == nil {
		db = s.db
	}

	task := &EmbeddingTask{
		DocumentID: documentID,
		UserID:     userID,
		Status:     StatusDebounced,
	}
	_, err := db.NewInsert().
		Model(task).
		On("CONFLICT (document_id) WHERE status <> 'completed' DO UPDATE").
		Set("status = ?", StatusDebounced).
		Set("metadata = ''").
		Set("updated_at = now()").
		Returning("*").
		Exec(ctx)
	if err != nil {
		s.log.Error("failed to upsert embedding task", logger.Error(err),
			slog.String("document_id", documentID.String()))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	return &blocks.TaskRef{ID: task.ID, UpdatedAt: task.UpdatedAt}, nil
}

// GetByID returns a task by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*EmbeddingTask, error) {
	task := &EmbeddingTask{}
	err := s.db.NewSelect().
		Model(task).
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrTaskNotFound
		}
		s.log.Error("failed to get embedding task", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return task, nil
}

// PromoteQuiescent flips debounced tasks whose last touch is older than the
// debounce window to ready. Idempotent: a second run promotes nothing new.
func (s *Store) PromoteQuiescent(ctx context.Context, window time.Duration) (int64, error) {
	res, err := s.db.NewUpdate().
		Model((*EmbeddingTask)(nil)).
		Set("status = ?", StatusReady).
		Set("updated_at = now()").
		Where("status = ?", StatusDebounced).
		Where("updated_at < now() - ?::interval", intervalArg(window)).
		Exec(ctx)
	if err != nil {
		s.log.Error("failed to promote quiescent tasks", logger.Error(err))
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return rowsAffected(res), nil
}

// RetryFailed flips failed tasks under the retry cap back to debounced once
// the cooldown has elapsed, incrementing retries. This is the only place
// retries grows.
func (s *Store) RetryFailed(ctx context.Context, cooldown time.Duration, maxRetries int) (int64, error) {
	res, err := s.db.NewUpdate().
		Model((*EmbeddingTask)(nil)).
		Set("status = ?", StatusDebounced).
		Set("retries = retries + 1").
		Set("updated_at = now()").
		Where("status = ?", StatusFailed).
		Where("retries < ?", maxRetries).
		Where("updated_at < now() - ?::interval", intervalArg(cooldown)).
		Exec(ctx)
	if err != nil {
		s.log.Error("failed to retry failed tasks", logger.Error(err))
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return rowsAffected(res), nil
}

// FailStuck marks ready tasks that have not been touched for too long as
// failed, so the retry trigger can pick them up later.
func (s *Store) FailStuck(ctx context.Context, threshold time.Duration) (int64, error) {
	res, err := s.db.NewUpdate().
		Model((*EmbeddingTask)(nil)).
		Set("status = ?", StatusFailed).
		Set("metadata = ?", "stuck in ready state, recovered by trigger").
		Set("updated_at = now()").
		Where("status = ?", StatusReady).
		Where("updated_at < now() - ?::interval", intervalArg(threshold)).
		Exec(ctx)
	if err != nil {
		s.log.Error("failed to recover stuck tasks", logger.Error(err))
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return rowsAffected(res), nil
}

// ClaimReady claims up to limit ready tasks for processing, skipping rows
// other workers hold. Claiming refreshes updated_at so a claimed task does
// not immediately look stuck.
func (s *Store) ClaimReady(ctx context.Context, limit int) ([]EmbeddingTask, error) {
	tasks := []EmbeddingTask{}
	err := s.db.NewRaw(`
		UPDATE journal.embedding_tasks
		SET updated_at = now()
		WHERE id IN (
			SELECT id FROM journal.embedding_tasks
			WHERE status = 'ready'
			ORDER BY updated_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT ?
		)
		RETURNING *`, limit).
		Scan(ctx, &tasks)
	if err != nil {
		s.log.Error("failed to claim ready tasks", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return tasks, nil
}

// SetCompleted finalizes a task with an optional message.
func (s *Store) SetCompleted(ctx context.Context, id uuid.UUID, message string) error {
	return s.setStatus(ctx, id, StatusCompleted, message)
}

// SetFailed marks a task failed with the error message in metadata. Retries
// are not incremented here; only the retry trigger does that.
func (s *Store) SetFailed(ctx context.Context, id uuid.UUID, message string) error {
	return s.setStatus(ctx, id, StatusFailed, message)
}

func (s *Store) setStatus(ctx context.Context, id uuid.UUID, status, message string) error {
	res, err := s.db.NewUpdate().
		Model((*EmbeddingTask)(nil)).
		Set("status = ?", status).
		Set("metadata = ?", message).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		s.log.Error("failed to update task status", logger.Error(err),
			slog.String("task_id", id.String()),
			slog.String("status", status))
		return apperror.ErrDatabase.WithInternal(err)
	}
	if rowsAffected(res) == 0 {
		return apperror.ErrTaskNotFound
	}
	return nil
}

// ReplaceEmbeddings atomically replaces all chunk rows of a document with
// the given set. Runs in its own short transaction; callers must have
// already finished any slow external work.
func (s *Store) ReplaceEmbeddings(ctx context.Context, documentID uuid.UUID, rows []DocumentEmbedding) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*DocumentEmbedding)(nil)).
			Where("document_id = ?", documentID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete prior embeddings: %w", err)
		}

		// embedding is vector(768); pgvector needs the text form with an
		// explicit cast, so rows go in one by one via raw SQL.
		for i := range rows {
			r := &rows[i]
			_, err := tx.NewRaw(`
				INSERT INTO journal.document_embeddings
					(document_id, user_id, chunk_id, chunk_text, raw_text, embedding, metadata)
				VALUES (?, ?, ?, ?, ?, ?::vector, ?::jsonb)`,
				r.DocumentID, r.UserID, r.ChunkID, r.ChunkText, r.RawText,
				vectorToString(r.Vector), metadataOrEmpty(r.Metadata)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("insert embedding row %d: %w", r.ChunkID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to replace document embeddings", logger.Error(err),
			slog.String("document_id", documentID.String()))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// CountEmbeddings returns the number of chunk rows stored for a document.
func (s *Store) CountEmbeddings(ctx context.Context, documentID uuid.UUID) (int, error) {
	count, err := s.db.NewSelect().
		Model((*DocumentEmbedding)(nil)).
		Where("document_id = ?", documentID).
		Count(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return count, nil
}

func metadataOrEmpty(m string) string {
	if m == "" {
		return "{}"
	}
	return m
}

// intervalArg renders a duration as a Postgres interval literal.
func intervalArg(d time.Duration) string {
	return fmt.Sprintf("%d milliseconds", d.Milliseconds())
}

// vectorToString renders a float32 slice in pgvector's text format.
func vectorToString(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	result := "["
	for i, val := range v {
		if i > 0 {
			result += ","
		}
		result += fmt.Sprintf("%f", val)
	}
	result += "]"
	return result
}

// rowsAffected reads the affected-row count, swallowing drivers that cannot
// report it.
func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
