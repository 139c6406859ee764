package embeddings

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/pkg/embeddings/openai"
)

// Module provides the embeddings fx.Module
var Module = fx.Module("embeddings",
	fx.Provide(NewService),
)

// Service provides embedding generation with provider selection
type Service struct {
	client  Client
	log     *slog.Logger
	enabled bool
}

// NewNoopService creates a service with a noop client (for testing)
func NewNoopService(log *slog.Logger) *Service {
	return &Service{
		client:  NewNoopClient(),
		log:     log,
		enabled: false,
	}
}

// NewServiceWithClient wraps an explicit client. Useful for tests and for
// callers that manage provider selection themselves.
func NewServiceWithClient(client Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log, enabled: true}
}

// IsEnabled returns true if a real provider is configured
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// NewService creates the embeddings service from configuration. With
// EMBEDDINGS_PROVIDER=noop (or a missing API key) all embedding calls
// return nil vectors.
func NewService(cfg *config.Config, log *slog.Logger) (*Service, error) {
	embCfg := cfg.Embeddings

	if !embCfg.IsEnabled() {
		log.Info("embeddings disabled, using noop client",
			slog.String("provider", embCfg.Provider))
		return NewNoopService(log), nil
	}

	client, err := openai.NewClient(openai.Config{
		BaseURL:           embCfg.BaseURL,
		APIKey:            embCfg.APIKey,
		Model:             embCfg.Model,
		Dimension:         embCfg.Dimension,
		Timeout:           embCfg.Timeout,
		RequestsPerMinute: embCfg.RequestsPerMinute,
		BatchSize:         cfg.Indexing.EmbedBatchSize,
	}, openai.WithLogger(log))
	if err != nil {
		return nil, err
	}

	log.Info("embeddings client initialized",
		slog.String("provider", embCfg.Provider),
		slog.String("model", embCfg.Model),
		slog.Int("dimension", embCfg.Dimension),
	)

	return &Service{client: client, log: log, enabled: true}, nil
}

// EmbedQuery generates an embedding for a single query
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.client.EmbedQuery(ctx, query)
}

// EmbedDocuments generates embeddings for multiple documents
func (s *Service) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	return s.client.EmbedDocuments(ctx, documents)
}
