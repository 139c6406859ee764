package blocks_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/domain/blocks"
	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/internal/testutil"
)

func setupHTTP(t *testing.T) (*testutil.TestServer, *testutil.HTTPClient) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	tdb, err := testutil.SetupTestDB(context.Background(), "blocks_http")
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(tdb.Close)

	srv := testutil.NewTestServer(tdb)
	return srv, srv.Client()
}

func createHTTPDocument(t *testing.T, client *testutil.HTTPClient, token, title string) uuid.UUID {
	t.Helper()
	resp := client.POST("/api/documents",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]string{"title": title}),
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())

	var doc documents.Document
	require.NoError(t, resp.JSON(&doc))
	return doc.ID
}

func TestTransactionsAPI_BuildAndReadTree(t *testing.T) {
	srv, client := setupHTTP(t)
	token := srv.UserToken(uuid.New())
	docID := createHTTPDocument(t, client, token, "Draft")

	a, b := uuid.New(), uuid.New()
	resp := client.POST("/api/documents/"+docID.String()+"/transactions",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]any{
			"transactions": []map[string]any{
				{"type": "block_upsert", "blockId": a, "data": map[string]string{"type": "paragraph", "text": "first"}},
				{"type": "block_upsert", "blockId": b, "data": map[string]string{"type": "paragraph", "text": "second"}},
				{"type": "edge_insert", "fromId": a, "toId": b},
			},
		}),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

	var txResp blocks.TransactionResponse
	require.NoError(t, resp.JSON(&txResp))
	require.Equal(t, 3, txResp.Applied)
	require.NotEqual(t, uuid.Nil, txResp.TaskID)

	resp = client.GET("/api/documents/"+docID.String()+"/tree", testutil.WithAuth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tree blocks.TreeResponse
	require.NoError(t, resp.JSON(&tree))
	require.False(t, tree.Empty)
	require.Len(t, tree.Roots, 2)
	require.Equal(t, a, tree.Roots[0].ID)
	require.Equal(t, b, tree.Roots[1].ID)

	// The enqueued task is visible on the internal surface.
	resp = client.GET("/api/internal/indexing/tasks/"+txResp.TaskID.String(),
		testutil.WithAuth(testutil.TestInternalToken))
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

	var task indexing.EmbeddingTask
	require.NoError(t, resp.JSON(&task))
	require.Equal(t, indexing.StatusDebounced, task.Status)
	require.Equal(t, docID, task.DocumentID)
}

func TestTransactionsAPI_RejectsInvalidOperation(t *testing.T) {
	srv, client := setupHTTP(t)
	token := srv.UserToken(uuid.New())
	docID := createHTTPDocument(t, client, token, "Draft")

	resp := client.POST("/api/documents/"+docID.String()+"/transactions",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]any{
			"transactions": []map[string]any{
				{"type": "block_upsert"},
			},
		}),
	)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, resp.String())
}

func TestTransactionsAPI_ForeignDocumentIsNotFound(t *testing.T) {
	srv, client := setupHTTP(t)
	owner := srv.UserToken(uuid.New())
	stranger := srv.UserToken(uuid.New())
	docID := createHTTPDocument(t, client, owner, "Private")

	resp := client.POST("/api/documents/"+docID.String()+"/transactions",
		testutil.WithAuth(stranger),
		testutil.WithJSONBody(map[string]any{
			"transactions": []map[string]any{
				{"type": "block_upsert", "blockId": uuid.New(), "data": map[string]string{"type": "paragraph"}},
			},
		}),
	)
	require.Equal(t, http.StatusNotFound, resp.StatusCode, resp.String())
}

func TestInternalAPI_RequiresServiceToken(t *testing.T) {
	srv, client := setupHTTP(t)
	userToken := srv.UserToken(uuid.New())

	resp := client.GET("/api/internal/indexing/worker")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// User tokens are not service tokens.
	resp = client.GET("/api/internal/indexing/worker", testutil.WithAuth(userToken))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = client.GET("/api/internal/indexing/worker", testutil.WithAuth(testutil.TestInternalToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInternalAPI_TriggersAndStatusUpdates(t *testing.T) {
	srv, client := setupHTTP(t)
	token := srv.UserToken(uuid.New())
	docID := createHTTPDocument(t, client, token, "Draft")

	resp := client.POST("/api/documents/"+docID.String()+"/transactions",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]any{
			"transactions": []map[string]any{
				{"type": "block_upsert", "blockId": uuid.New(), "data": map[string]string{"type": "paragraph", "text": "hi"}},
			},
		}),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var txResp blocks.TransactionResponse
	require.NoError(t, resp.JSON(&txResp))

	svc := testutil.WithAuth(testutil.TestInternalToken)

	resp = client.POST("/api/internal/indexing/triggers/promote", svc)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

	var result indexing.TriggerResult
	require.NoError(t, resp.JSON(&result))
	require.Equal(t, indexing.TriggerPromote, result.Trigger)
	// The task was just touched, so the quiescence window keeps it debounced.
	require.Zero(t, result.Transitioned)

	resp = client.POST("/api/internal/indexing/triggers/bogus", svc)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = client.PATCH("/api/internal/indexing/tasks/"+txResp.TaskID.String(), svc,
		testutil.WithJSONBody(map[string]string{"status": "completed", "metadata": "indexed elsewhere"}),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

	var task indexing.EmbeddingTask
	require.NoError(t, resp.JSON(&task))
	require.Equal(t, indexing.StatusCompleted, task.Status)

	resp = client.PATCH("/api/internal/indexing/tasks/"+txResp.TaskID.String(), svc,
		testutil.WithJSONBody(map[string]string{"status": "ready"}),
	)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
