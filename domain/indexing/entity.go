package indexing

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Embedding task statuses. A task moves debounced -> ready -> completed in
// the happy path; failed tasks are retried back to debounced by the retry
// trigger while under the retry cap.
const (
	StatusDebounced = "debounced"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// EmbeddingTask tracks re-indexing status for one document, from
// journal.embedding_tasks. At most one non-completed task exists per
// document; updated_at drives every time-based transition.
type EmbeddingTask struct {
	bun.BaseModel `bun:"table:journal.embedding_tasks,alias:t"`

	ID         uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	DocumentID uuid.UUID `bun:"document_id,type:uuid,notnull" json:"documentId"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"userId"`
	Status     string    `bun:"status,notnull,default:'debounced'" json:"status"`
	Retries    int       `bun:"retries,notnull,default:0" json:"retries"`
	Metadata   string    `bun:"metadata,notnull,default:''" json:"metadata"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// DocumentEmbedding is one embedded chunk row from
// journal.document_embeddings. The full row set of a document is replaced
// on every successful worker run.
type DocumentEmbedding struct {
	bun.BaseModel `bun:"table:journal.document_embeddings,alias:de"`

	DocumentID uuid.UUID `bun:"document_id,pk,type:uuid" json:"documentId"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull" json:"userId"`
	ChunkID    int       `bun:"chunk_id,pk" json:"chunkId"`
	ChunkText  string    `bun:"chunk_text,notnull" json:"chunkText"`
	RawText    string    `bun:"raw_text,notnull" json:"rawText"`
	Vector     []float32 `bun:"-" json:"-"`
	Metadata   string    `bun:"metadata,type:jsonb,notnull,default:'{}'" json:"metadata"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// UpdateTaskStatusRequest is the request body for the internal task status
// endpoint.
type UpdateTaskStatusRequest struct {
	Status   string `json:"status"`
	Metadata string `json:"metadata"`
}

// TriggerResult reports how many tasks a bulk trigger transitioned.
type TriggerResult struct {
	Trigger      string `json:"trigger"`
	Transitioned int64  `json:"transitioned"`
}
