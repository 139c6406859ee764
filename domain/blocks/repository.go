package blocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// Repository handles block graph database operations. Mutating methods take
// an explicit bun.IDB so the transaction engine can run a whole batch inside
// one transaction.
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new blocks repository
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("blocks.repo")),
	}
}

// GetNodes returns all blocks of a document in a stable order. The order is
// the reconstruction fallback when sibling edges are missing or damaged.
func (r *Repository) GetNodes(ctx context.Context, documentID, userID uuid.UUID) ([]BlockNode, error) {
	nodes := []BlockNode{}
	err := r.db.NewSelect().
		Model(&nodes).
		Where("b.document_id = ?", documentID).
		Where("b.user_id = ?", userID).
		Order("b.created_at ASC", "b.id ASC").
		Scan(ctx)
	if err != nil {
		r.log.Error("failed to load blocks", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return nodes, nil
}

// GetNode returns a single block by id, or ErrBlockNotFound.
func (r *Repository) GetNode(ctx context.Context, id, documentID, userID uuid.UUID) (*BlockNode, error) {
	node := &BlockNode{}
	err := r.db.NewSelect().
		Model(node).
		Where("b.id = ?", id).
		Where("b.document_id = ?", documentID).
		Where("b.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBlockNotFound
		}
		r.log.Error("failed to load block", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return node, nil
}

// GetChildren returns the blocks under a parent, unordered. A nil parentID
// selects the document's root blocks. Ordering is the tree engine's job.
func (r *Repository) GetChildren(ctx context.Context, parentID *uuid.UUID, documentID, userID uuid.UUID) ([]BlockNode, error) {
	nodes := []BlockNode{}
	q := r.db.NewSelect().
		Model(&nodes).
		Where("b.document_id = ?", documentID).
		Where("b.user_id = ?", userID)
	if parentID == nil {
		q = q.Where("b.parent_id IS NULL")
	} else {
		q = q.Where("b.parent_id = ?", *parentID)
	}
	if err := q.Scan(ctx); err != nil {
		r.log.Error("failed to load child blocks", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return nodes, nil
}

// GetSiblingEdges returns the edges whose source block sits under the given
// parent, i.e. the linked-list edges of one sibling group.
func (r *Repository) GetSiblingEdges(ctx context.Context, parentID *uuid.UUID, documentID, userID uuid.UUID) ([]BlockEdge, error) {
	edges := []BlockEdge{}
	q := r.db.NewSelect().
		Model(&edges).
		Join("JOIN journal.blocks AS b ON b.id = e.from_id").
		Where("e.document_id = ?", documentID).
		Where("e.user_id = ?", userID)
	if parentID == nil {
		q = q.Where("b.parent_id IS NULL")
	} else {
		q = q.Where("b.parent_id = ?", *parentID)
	}
	if err := q.Scan(ctx); err != nil {
		r.log.Error("failed to load sibling edges", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edges, nil
}

// GetEdges returns all sibling edges of a document.
func (r *Repository) GetEdges(ctx context.Context, documentID, userID uuid.UUID) ([]BlockEdge, error) {
	edges := []BlockEdge{}
	err := r.db.NewSelect().
		Model(&edges).
		Where("e.document_id = ?", documentID).
		Where("e.user_id = ?", userID).
		Order("e.created_at ASC").
		Scan(ctx)
	if err != nil {
		r.log.Error("failed to load block edges", logger.Error(err))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edges, nil
}

// UpsertNode inserts a block or updates the existing one by id. Only the
// fields the caller provided are overwritten: setParent and setData gate the
// parent_id and data columns, everything else of the existing row survives.
// The conflict update is scoped so an id collision from another document or
// user cannot be hijacked.
func (r *Repository) UpsertNode(ctx context.Context, db bun.IDB, node *BlockNode, setParent, setData bool) error {
	if node.Data == nil {
		node.Data = json.RawMessage(`{}`)
	}

	q := db.NewInsert().
		Model(node).
		On("CONFLICT (id) DO UPDATE").
		Set("updated_at = ?", time.Now())
	if setParent {
		q = q.Set("parent_id = EXCLUDED.parent_id")
	}
	if setData {
		q = q.Set("data = EXCLUDED.data")
	}
	q = q.Where("b.document_id = EXCLUDED.document_id").
		Where("b.user_id = EXCLUDED.user_id")

	if _, err := q.Exec(ctx); err != nil {
		r.log.Error("failed to upsert block", logger.Error(err),
			slog.String("block_id", node.ID.String()))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// DeleteNode removes a block. Descendants and edges touching the block
// cascade in the database.
func (r *Repository) DeleteNode(ctx context.Context, db bun.IDB, id, documentID, userID uuid.UUID) error {
	_, err := db.NewDelete().
		Model((*BlockNode)(nil)).
		Where("id = ?", id).
		Where("document_id = ?", documentID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to delete block", logger.Error(err),
			slog.String("block_id", id.String()))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// InsertEdge inserts a sibling edge. Re-inserting an existing edge is a
// no-op rather than an error.
func (r *Repository) InsertEdge(ctx context.Context, db bun.IDB, edge *BlockEdge) error {
	if edge.Type == "" {
		edge.Type = EdgeTypeSibling
	}
	_, err := db.NewInsert().
		Model(edge).
		On("CONFLICT (from_id, to_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to insert block edge", logger.Error(err),
			slog.String("from_id", edge.FromID.String()),
			slog.String("to_id", edge.ToID.String()))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// DeleteEdge removes a sibling edge.
func (r *Repository) DeleteEdge(ctx context.Context, db bun.IDB, fromID, toID, documentID, userID uuid.UUID) error {
	_, err := db.NewDelete().
		Model((*BlockEdge)(nil)).
		Where("from_id = ?", fromID).
		Where("to_id = ?", toID).
		Where("document_id = ?", documentID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		r.log.Error("failed to delete block edge", logger.Error(err),
			slog.String("from_id", fromID.String()),
			slog.String("to_id", toID.String()))
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}
