package testutil

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/domain/health"
	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/auth"
	"github.com/inkwell-app/inkwell/pkg/embeddings"
)

// TestServer wires the full HTTP surface against a test database,
// without fx. The embedding worker is constructed but not started, so
// transactions enqueue tasks without a background poller racing tests.
type TestServer struct {
	Echo   *echo.Echo
	TestDB *TestDB
	DB     *bun.DB
	Config *config.Config
	Log    *slog.Logger

	Documents *documents.Repository
	Blocks    *blocks.Repository
	Store     *indexing.Store
	Worker    *indexing.Worker
}

// NewTestServer creates a test server with all routes registered.
func NewTestServer(tdb *TestDB) *TestServer {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := tdb.Config
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = TestJWTSecret
	}
	if cfg.Auth.InternalToken == "" {
		cfg.Auth.InternalToken = TestInternalToken
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(log)

	authMW := auth.NewMiddleware(cfg, log)

	health.RegisterRoutes(e, health.NewHandler(tdb.Pool, cfg), health.NewMetricsHandler(tdb.DB))

	docsRepo := documents.NewRepository(tdb.DB, log)
	docsSvc := documents.NewService(docsRepo, log)
	documents.RegisterRoutes(e, documents.NewHandler(docsSvc), authMW)

	blocksRepo := blocks.NewRepository(tdb.DB, log)
	store := indexing.NewStore(tdb.DB, log)
	worker := indexing.NewWorker(store, blocksRepo, embeddings.NewNoopService(log), cfg, log)
	triggers := indexing.NewTriggers(store, cfg, log)
	indexing.RegisterRoutes(e, indexing.NewHandler(store, triggers, worker), authMW)

	blocksSvc := blocks.NewService(tdb.DB, blocksRepo, docsRepo, store, worker, log)
	blocks.RegisterRoutes(e, blocks.NewHandler(blocksSvc), authMW)

	return &TestServer{
		Echo:      e,
		TestDB:    tdb,
		DB:        tdb.DB,
		Config:    cfg,
		Log:       log,
		Documents: docsRepo,
		Blocks:    blocksRepo,
		Store:     store,
		Worker:    worker,
	}
}

// Client returns an in-process HTTP client for the server.
func (s *TestServer) Client() *HTTPClient {
	return NewHTTPClient(s.Echo)
}

// UserToken issues a valid access token for userID.
func (s *TestServer) UserToken(userID uuid.UUID) string {
	return SignTestToken(s.Config.Auth.JWTSecret, userID, "test@inkwell.local", time.Hour)
}
