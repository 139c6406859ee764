package documents_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/internal/testutil"
	"github.com/inkwell-app/inkwell/pkg/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// setupRepo creates an isolated test database and returns a repository bound
// to it. Tests are skipped when no local Postgres is available.
func setupRepo(t *testing.T) (*documents.Repository, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()
	tdb, err := testutil.SetupTestDB(ctx, "documents")
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(tdb.Close)

	return documents.NewRepository(tdb.DB, testLogger()), ctx
}

func createDoc(t *testing.T, repo *documents.Repository, ctx context.Context, userID uuid.UUID, title string) *documents.Document {
	t.Helper()
	doc := &documents.Document{UserID: userID, Title: title}
	require.NoError(t, repo.Create(ctx, doc))
	return doc
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, ctx := setupRepo(t)
	userID := uuid.New()

	doc := createDoc(t, repo, ctx, userID, "Morning pages")
	require.NotEqual(t, uuid.Nil, doc.ID)
	require.False(t, doc.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, doc.ID, userID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, got.ID)
	require.Equal(t, "Morning pages", got.Title)
	require.Equal(t, userID, got.UserID)
}

func TestRepository_GetByID_WrongUser(t *testing.T) {
	repo, ctx := setupRepo(t)

	doc := createDoc(t, repo, ctx, uuid.New(), "Private")

	_, err := repo.GetByID(ctx, doc.ID, uuid.New())
	require.ErrorIs(t, err, apperror.ErrDocumentNotFound)
}

func TestRepository_Exists(t *testing.T) {
	repo, ctx := setupRepo(t)
	userID := uuid.New()

	doc := createDoc(t, repo, ctx, userID, "Here")

	exists, err := repo.Exists(ctx, doc.ID, userID)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.Exists(ctx, doc.ID, uuid.New())
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRepository_List(t *testing.T) {
	repo, ctx := setupRepo(t)
	userID := uuid.New()

	for _, title := range []string{"one", "two", "three"} {
		createDoc(t, repo, ctx, userID, title)
	}
	createDoc(t, repo, ctx, uuid.New(), "someone else's")

	result, err := repo.List(ctx, userID, 0)
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Documents, 3)

	limited, err := repo.List(ctx, userID, 2)
	require.NoError(t, err)
	require.Equal(t, 3, limited.Total)
	require.Len(t, limited.Documents, 2)
}

func TestRepository_UpdateTitle(t *testing.T) {
	repo, ctx := setupRepo(t)
	userID := uuid.New()

	doc := createDoc(t, repo, ctx, userID, "draft")

	updated, err := repo.UpdateTitle(ctx, doc.ID, userID, "final")
	require.NoError(t, err)
	require.Equal(t, "final", updated.Title)

	_, err = repo.UpdateTitle(ctx, uuid.New(), userID, "nope")
	require.ErrorIs(t, err, apperror.ErrDocumentNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, ctx := setupRepo(t)
	userID := uuid.New()

	doc := createDoc(t, repo, ctx, userID, "ephemeral")

	require.NoError(t, repo.Delete(ctx, doc.ID, userID))

	_, err := repo.GetByID(ctx, doc.ID, userID)
	require.ErrorIs(t, err, apperror.ErrDocumentNotFound)

	require.ErrorIs(t, repo.Delete(ctx, doc.ID, userID), apperror.ErrDocumentNotFound)
}

func TestService_Create_TitleTooLong(t *testing.T) {
	svc := documents.NewService(nil, testLogger())

	_, err := svc.Create(context.Background(), uuid.New(), &documents.CreateDocumentRequest{
		Title: strings.Repeat("x", 513),
	})
	require.Error(t, err)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "bad_request", appErr.Code)
}
