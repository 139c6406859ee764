package blocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// ChangeNotifier is poked after a transaction commits so the re-indexing
// worker can wake up early. Notification is best-effort: a failure never
// fails the transaction.
type ChangeNotifier interface {
	DocumentChanged(documentID uuid.UUID)
}

// Service is the transaction engine: it applies batches of block and edge
// operations to a document's graph and marks the document dirty for
// re-indexing.
type Service struct {
	db     bun.IDB
	repo   *Repository
	docs   *documents.Repository
	tasks  TaskUpserter
	notify ChangeNotifier
	log    *slog.Logger
}

// NewService creates a new blocks service
func NewService(db bun.IDB, repo *Repository, docs *documents.Repository, tasks TaskUpserter, notify ChangeNotifier, log *slog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		docs:   docs,
		tasks:  tasks,
		notify: notify,
		log:    log.With(logger.Scope("blocks.service")),
	}
}

// GetTree returns the reconstructed ordered tree of a document. A document
// with no blocks yields an empty tree, distinct from a missing document.
func (s *Service) GetTree(ctx context.Context, documentID, userID uuid.UUID) (*TreeResponse, error) {
	exists, err := s.docs.Exists(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.ErrDocumentNotFound
	}

	nodes, err := s.repo.GetNodes(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.GetEdges(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	return &TreeResponse{
		DocumentID: documentID,
		Empty:      len(nodes) == 0,
		Roots:      BuildTree(nodes, edges, s.log),
	}, nil
}

// ApplyTransaction applies a batch of operations to a document's block
// graph. Ownership is checked once before any mutation, the whole batch is
// applied in one database transaction, and exactly one debounced embedding
// task is upserted for the document afterwards.
func (s *Service) ApplyTransaction(ctx context.Context, documentID, userID uuid.UUID, req *TransactionRequest) (*TransactionResponse, error) {
	if len(req.Transactions) == 0 {
		return nil, apperror.ErrBadRequest.WithMessage("transactions must not be empty")
	}
	for i := range req.Transactions {
		if err := validateOperation(&req.Transactions[i]); err != nil {
			var appErr *apperror.Error
			if errors.As(err, &appErr) {
				return nil, appErr.WithMessage(fmt.Sprintf("operation %d: %s", i, appErr.Message))
			}
			return nil, err
		}
	}

	exists, err := s.docs.Exists(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.ErrDocumentNotFound
	}

	skip := cancelRedundantEdgePairs(req.Transactions)

	resp := &TransactionResponse{}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range req.Transactions {
			if skip[i] {
				continue
			}
			if err := s.applyOperation(ctx, tx, documentID, userID, &req.Transactions[i]); err != nil {
				return err
			}
			resp.Applied++
		}

		task, err := s.tasks.UpsertDebounced(ctx, tx, documentID, userID)
		if err != nil {
			return err
		}
		resp.TaskID = task.ID
		resp.TaskUpdatedAt = task.UpdatedAt
		return nil
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, apperror.ErrBadRequest.WithMessage("operation references a missing block")
		}
		s.log.Error("transaction batch failed", logger.Error(err),
			slog.String("document_id", documentID.String()))
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.log.Info("transaction applied",
		slog.String("document_id", documentID.String()),
		slog.Int("operations", resp.Applied),
		slog.String("task_id", resp.TaskID.String()))

	if s.notify != nil {
		s.notify.DocumentChanged(documentID)
	}

	return resp, nil
}

func (s *Service) applyOperation(ctx context.Context, tx bun.Tx, documentID, userID uuid.UUID, op *Operation) error {
	switch op.Type {
	case OpBlockUpsert:
		node := &BlockNode{
			ID:         *op.BlockID,
			DocumentID: documentID,
			UserID:     userID,
			ParentID:   op.ParentID,
		}
		if op.Data != nil {
			node.Data = *op.Data
		}
		return s.repo.UpsertNode(ctx, tx, node, op.HasParent, op.Data != nil)
	case OpBlockRemove:
		return s.repo.DeleteNode(ctx, tx, *op.BlockID, documentID, userID)
	case OpEdgeInsert:
		return s.repo.InsertEdge(ctx, tx, &BlockEdge{
			FromID:     *op.FromID,
			ToID:       *op.ToID,
			DocumentID: documentID,
			UserID:     userID,
		})
	case OpEdgeRemove:
		return s.repo.DeleteEdge(ctx, tx, *op.FromID, *op.ToID, documentID, userID)
	default:
		return apperror.ErrBadRequest.WithMessage(fmt.Sprintf("unknown operation type %q", op.Type))
	}
}

func validateOperation(op *Operation) error {
	switch op.Type {
	case OpBlockUpsert, OpBlockRemove:
		if op.BlockID == nil {
			return apperror.ErrBadRequest.WithMessage(op.Type + " requires blockId")
		}
	case OpEdgeInsert, OpEdgeRemove:
		if op.FromID == nil || op.ToID == nil {
			return apperror.ErrBadRequest.WithMessage(op.Type + " requires fromId and toId")
		}
		if *op.FromID == *op.ToID {
			return apperror.ErrBadRequest.WithMessage("edge endpoints must differ")
		}
	default:
		return apperror.ErrBadRequest.WithMessage(fmt.Sprintf("unknown operation type %q", op.Type))
	}
	return nil
}

// cancelRedundantEdgePairs marks edge_remove/edge_insert pairs on the same
// (from, to) for skipping. Editors reorder siblings by removing an edge and
// immediately reinserting it; applying neither write leaves the graph in the
// same final state and saves two statements. A pair only cancels when the
// remove and a later insert are the batch's only operations on that edge:
// with any third operation in play, skipping a subset can diverge from
// applying the sequence in order, so everything is applied.
func cancelRedundantEdgePairs(ops []Operation) []bool {
	type edgeKey struct{ from, to uuid.UUID }
	counts := make(map[edgeKey]int)
	for i := range ops {
		if ops[i].Type == OpEdgeInsert || ops[i].Type == OpEdgeRemove {
			counts[edgeKey{*ops[i].FromID, *ops[i].ToID}]++
		}
	}

	skip := make([]bool, len(ops))
	for i := range ops {
		if ops[i].Type != OpEdgeRemove {
			continue
		}
		key := edgeKey{*ops[i].FromID, *ops[i].ToID}
		if counts[key] != 2 {
			continue
		}
		for j := i + 1; j < len(ops); j++ {
			if ops[j].Type == OpEdgeInsert && *ops[j].FromID == key.from && *ops[j].ToID == key.to {
				skip[i] = true
				skip[j] = true
				break
			}
		}
	}
	return skip
}
