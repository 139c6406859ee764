package documents_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/domain/documents"
	"github.com/inkwell-app/inkwell/internal/testutil"
)

func setupServer(t *testing.T) (*testutil.TestServer, *testutil.HTTPClient) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	tdb, err := testutil.SetupTestDB(context.Background(), "documents_http")
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(tdb.Close)

	srv := testutil.NewTestServer(tdb)
	return srv, srv.Client()
}

func TestDocumentsAPI_RequiresAuth(t *testing.T) {
	_, client := setupServer(t)

	resp := client.GET("/api/documents")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = client.GET("/api/documents", testutil.WithAuth("not-a-jwt"))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDocumentsAPI_CRUD(t *testing.T) {
	srv, client := setupServer(t)
	token := srv.UserToken(uuid.New())

	resp := client.POST("/api/documents",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]string{"title": "Morning pages"}),
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())

	var doc documents.Document
	require.NoError(t, resp.JSON(&doc))
	require.NotEqual(t, uuid.Nil, doc.ID)
	require.Equal(t, "Morning pages", doc.Title)

	resp = client.GET("/api/documents", testutil.WithAuth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list documents.ListResult
	require.NoError(t, resp.JSON(&list))
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Documents, 1)

	resp = client.PATCH("/api/documents/"+doc.ID.String(),
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]string{"title": "Evening pages"}),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

	var renamed documents.Document
	require.NoError(t, resp.JSON(&renamed))
	require.Equal(t, "Evening pages", renamed.Title)

	resp = client.DELETE("/api/documents/"+doc.ID.String(), testutil.WithAuth(token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = client.GET("/api/documents/"+doc.ID.String(), testutil.WithAuth(token))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentsAPI_IsolatedPerUser(t *testing.T) {
	srv, client := setupServer(t)
	owner := srv.UserToken(uuid.New())
	stranger := srv.UserToken(uuid.New())

	resp := client.POST("/api/documents",
		testutil.WithAuth(owner),
		testutil.WithJSONBody(map[string]string{"title": "Private"}),
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var doc documents.Document
	require.NoError(t, resp.JSON(&doc))

	resp = client.GET("/api/documents/"+doc.ID.String(), testutil.WithAuth(stranger))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocumentsAPI_RejectsOversizedTitle(t *testing.T) {
	srv, client := setupServer(t)
	token := srv.UserToken(uuid.New())

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}

	resp := client.POST("/api/documents",
		testutil.WithAuth(token),
		testutil.WithJSONBody(map[string]string{"title": string(long)}),
	)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
