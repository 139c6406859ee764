package blocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BlockNode represents one block of a document from journal.blocks.
// Data carries the block's typed content payload (type, text, props) and is
// opaque to the store.
type BlockNode struct {
	bun.BaseModel `bun:"table:journal.blocks,alias:b"`

	ID         uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	DocumentID uuid.UUID       `bun:"document_id,type:uuid,notnull" json:"documentId"`
	UserID     uuid.UUID       `bun:"user_id,type:uuid,notnull" json:"userId"`
	ParentID   *uuid.UUID      `bun:"parent_id,type:uuid" json:"parentId,omitempty"`
	Data       json.RawMessage `bun:"data,type:jsonb,notnull,default:'{}'" json:"data"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// BlockEdge is a sibling-order edge from journal.block_edges. An edge
// from_id -> to_id means "to_id is the next sibling after from_id" among
// blocks sharing the same parent.
type BlockEdge struct {
	bun.BaseModel `bun:"table:journal.block_edges,alias:e"`

	FromID     uuid.UUID `bun:"from_id,pk,type:uuid" json:"fromId"`
	ToID       uuid.UUID `bun:"to_id,pk,type:uuid" json:"toId"`
	DocumentID uuid.UUID `bun:"document_id,type:uuid,notnull" json:"documentId"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"userId"`
	Type       string    `bun:"type,notnull,default:'sibling'" json:"type"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// EdgeTypeSibling is the only edge type the store currently uses.
const EdgeTypeSibling = "sibling"

// TreeNode is one node of a reconstructed document tree.
type TreeNode struct {
	ID       uuid.UUID       `json:"id"`
	ParentID *uuid.UUID      `json:"parentId,omitempty"`
	Data     json.RawMessage `json:"data"`
	Children []*TreeNode     `json:"children"`
}

// Operation types accepted by the transaction engine.
const (
	OpBlockUpsert = "block_upsert"
	OpBlockRemove = "block_remove"
	OpEdgeInsert  = "edge_insert"
	OpEdgeRemove  = "edge_remove"
)

// Operation is a single mutation in a transaction batch. Which fields are
// required depends on Type: block_upsert uses BlockID plus any of ParentID
// and Data; block_remove uses BlockID; edge_insert and edge_remove use
// FromID and ToID.
type Operation struct {
	Type    string           `json:"type"`
	BlockID *uuid.UUID       `json:"blockId,omitempty"`
	FromID  *uuid.UUID       `json:"fromId,omitempty"`
	ToID    *uuid.UUID       `json:"toId,omitempty"`
	Data    *json.RawMessage `json:"data,omitempty"`

	// ParentID distinguishes "not provided" (nil) from "set to root"
	// (provided null) via the HasParent flag set during unmarshalling.
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
	HasParent bool       `json:"-"`
}

// operationAlias avoids recursing into UnmarshalJSON.
type operationAlias Operation

// UnmarshalJSON records whether parentId was present at all, so a
// block_upsert can distinguish "leave parent untouched" from "move to root".
func (o *Operation) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	var alias operationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*o = Operation(alias)
	_, o.HasParent = probe["parentId"]
	return nil
}

// TransactionRequest is the request body for submitting a transaction batch.
type TransactionRequest struct {
	Transactions []Operation `json:"transactions"`
}

// TransactionResponse reports the embedding task that was created or
// refreshed as a result of the batch.
type TransactionResponse struct {
	Applied       int       `json:"applied"`
	TaskID        uuid.UUID `json:"taskId"`
	TaskUpdatedAt time.Time `json:"taskUpdatedAt"`
}

// TreeResponse wraps a reconstructed tree. Empty reports a document that
// exists but has no blocks, distinct from a 404.
type TreeResponse struct {
	DocumentID uuid.UUID   `json:"documentId"`
	Empty      bool        `json:"empty"`
	Roots      []*TreeNode `json:"roots"`
}

// TaskRef identifies an embedding task and its last-touched time.
type TaskRef struct {
	ID        uuid.UUID
	UpdatedAt time.Time
}

// TaskUpserter marks a document dirty for re-indexing. Implemented by the
// indexing store; the transaction engine calls it after applying a batch.
type TaskUpserter interface {
	UpsertDebounced(ctx context.Context, db bun.IDB, documentID, userID uuid.UUID) (*TaskRef, error)
}
