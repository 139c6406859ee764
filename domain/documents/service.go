package documents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// Service contains document business logic
type Service struct {
	repo *Repository
	log  *slog.Logger
}

// NewService creates a new documents service
func NewService(repo *Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(logger.Scope("documents.service")),
	}
}

// Create creates a new document for the given user
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateDocumentRequest) (*Document, error) {
	title := strings.TrimSpace(req.Title)
	if len(title) > 512 {
		return nil, apperror.ErrBadRequest.WithMessage("title too long (max 512 characters)")
	}

	doc := &Document{
		UserID: userID,
		Title:  title,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.log.Info("document created",
		slog.String("document_id", doc.ID.String()),
		slog.String("user_id", userID.String()))

	return doc, nil
}

// Get returns a document owned by the user
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Document, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// List returns the user's documents
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) (*ListResult, error) {
	return s.repo.List(ctx, userID, limit)
}

// Rename updates a document's title
func (s *Service) Rename(ctx context.Context, id, userID uuid.UUID, req *UpdateDocumentRequest) (*Document, error) {
	title := strings.TrimSpace(req.Title)
	if len(title) > 512 {
		return nil, apperror.ErrBadRequest.WithMessage("title too long (max 512 characters)")
	}
	return s.repo.UpdateTitle(ctx, id, userID, title)
}

// Delete removes a document and everything hanging off it
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.log.Info("document deleted",
		slog.String("document_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}
