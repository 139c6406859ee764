// Package main provides the entry point for the Inkwell journaling API server
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/domain/health"
	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/domain/scheduler"
	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/database"
	"github.com/inkwell-app/inkwell/internal/server"
	"github.com/inkwell-app/inkwell/pkg/auth"
	"github.com/inkwell-app/inkwell/pkg/embeddings"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

func main() {
	// Load .env files if present (for local development)
	// Note: Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load("../../.env")
	_ = godotenv.Overload("../../.env.local")

	fx.New(
		// Logging
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		server.Module,

		// Auth middleware
		auth.Module,

		// Embeddings provider
		embeddings.Module,

		// Domain modules
		health.Module,
		documents.Module,
		blocks.Module,
		indexing.Module,

		// Scheduler (time-based embedding task triggers)
		scheduler.Module,
	).Run()
}
