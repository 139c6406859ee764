package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Document represents a journal document from journal.documents
type Document struct {
	bun.BaseModel `bun:"table:journal.documents,alias:d"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull" json:"userId"`
	Title     string    `bun:"title,notnull" json:"title"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// CreateDocumentRequest is the request body for creating a document
type CreateDocumentRequest struct {
	Title string `json:"title"`
}

// UpdateDocumentRequest is the request body for renaming a document
type UpdateDocumentRequest struct {
	Title string `json:"title"`
}

// ListResult contains the result of listing documents
type ListResult struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
