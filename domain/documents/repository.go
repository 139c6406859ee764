package documents

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// Repository handles document database operations
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new documents repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("documents.repo")),
	}
}

// Create inserts a new document
func (r *Repository) Create(ctx context.Context, doc *Document) error {
	_, err := r.db.NewInsert().
		Model(doc).
		Returning("*").
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to create document", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// GetByID retrieves a document owned by the given user
func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (*Document, error) {
	doc := &Document{}
	err := r.db.NewSelect().
		Model(doc).
		Where("d.id = ?", id).
		Where("d.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrDocumentNotFound
		}
		r.log.Error("failed to get document", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return doc, nil
}

// Exists reports whether a document exists and is owned by the given user
func (r *Repository) Exists(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Document)(nil)).
		Where("d.id = ?", id).
		Where("d.user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		r.log.Error("failed to check document existence", logger.Error(err))
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return exists, nil
}

// List returns all documents owned by the given user, newest first
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) (*ListResult, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	docs := []Document{}
	total, err := r.db.NewSelect().
		Model(&docs).
		Where("d.user_id = ?", userID).
		Order("d.created_at DESC").
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		r.log.Error("failed to list documents", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	return &ListResult{Documents: docs, Total: total}, nil
}

// UpdateTitle renames a document
func (r *Repository) UpdateTitle(ctx context.Context, id, userID uuid.UUID, title string) (*Document, error) {
	doc := &Document{}
	res, err := r.db.NewUpdate().
		Model(doc).
		Set("title = ?", title).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Returning("*").
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to update document", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, apperror.ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes a document; blocks, edges, tasks and embeddings cascade
// in the database.
func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Document)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to delete document", logger.Error(err))
		return apperror.ErrDatabase.WithInternal(err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperror.ErrDocumentNotFound
	}
	return nil
}
