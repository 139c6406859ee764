package embeddings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/inkwell-app/inkwell/internal/config"
)

func TestNoopClient_EmbedQuery(t *testing.T) {
	client := NewNoopClient()
	result, err := client.EmbedQuery(context.Background(), "test query")

	if err != nil {
		t.Errorf("EmbedQuery() error = %v, want nil", err)
	}
	if result != nil {
		t.Errorf("EmbedQuery() = %v, want nil", result)
	}
}

func TestNoopClient_EmbedDocuments(t *testing.T) {
	client := NewNoopClient()
	result, err := client.EmbedDocuments(context.Background(), []string{"doc1", "doc2"})

	if err != nil {
		t.Errorf("EmbedDocuments() error = %v, want nil", err)
	}
	if len(result) != 2 {
		t.Fatalf("EmbedDocuments() returned %d vectors, want 2", len(result))
	}
	for i, vec := range result {
		if vec != nil {
			t.Errorf("EmbedDocuments()[%d] = %v, want nil", i, vec)
		}
	}
}

func TestNoopClient_EmbedDocuments_Empty(t *testing.T) {
	client := NewNoopClient()
	result, err := client.EmbedDocuments(context.Background(), nil)

	if err != nil {
		t.Errorf("EmbedDocuments() error = %v, want nil", err)
	}
	if result != nil {
		t.Errorf("EmbedDocuments() = %v, want nil", result)
	}
}

func TestNewService_ProviderSelection(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	tests := []struct {
		name        string
		provider    string
		apiKey      string
		wantEnabled bool
	}{
		{"noop provider", "noop", "", false},
		{"openai without key", "openai", "", false},
		{"openai with key", "openai", "sk-test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Embeddings.Provider = tt.provider
			cfg.Embeddings.APIKey = tt.apiKey
			cfg.Embeddings.BaseURL = "https://api.openai.com/v1"
			cfg.Embeddings.Model = "text-embedding-3-small"

			svc, err := NewService(cfg, log)
			if err != nil {
				t.Fatalf("NewService() error = %v", err)
			}
			if svc.IsEnabled() != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", svc.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}
