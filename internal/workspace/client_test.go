package workspace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_QueryDatabase(t *testing.T) {
	var gotPath, gotAuth, gotVersion string
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"page-1"}],"has_more":false}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", upstream.Client())

	payload, err := client.QueryDatabase(context.Background(), "db-id-1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[{"id":"page-1"}],"has_more":false}`, string(payload))

	assert.Equal(t, "/databases/db-id-1/query", gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, apiVersion, gotVersion)
	assert.NotEmpty(t, gotBody)
}

func TestClient_CreateAndUpdatePage(t *testing.T) {
	type seen struct {
		method string
		path   string
		body   string
	}
	var requests []seen
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, seen{r.Method, r.URL.Path, string(body)})
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", upstream.Client())
	ctx := context.Background()

	createBody := json.RawMessage(`{"parent":{"database_id":"db-1"},"properties":{}}`)
	payload, err := client.CreatePage(ctx, createBody)
	require.NoError(t, err)
	assert.JSONEq(t, `{"object":"page","id":"page-1"}`, string(payload))

	updateBody := json.RawMessage(`{"properties":{"Amount":{"number":42}}}`)
	_, err = client.UpdatePage(ctx, "page-1", updateBody)
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPost, requests[0].method)
	assert.Equal(t, "/pages", requests[0].path)
	assert.JSONEq(t, string(createBody), requests[0].body)
	assert.Equal(t, http.MethodPatch, requests[1].method)
	assert.Equal(t, "/pages/page-1", requests[1].path)
	assert.JSONEq(t, string(updateBody), requests[1].body)
}

func TestClient_UpstreamErrorPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","status":404,"message":"Could not find database"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", upstream.Client())

	_, err := client.QueryDatabase(context.Background(), "missing-db", nil)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
	assert.Equal(t, "Could not find database", upstreamErr.Message)
}

func TestClient_UpstreamUnreachable(t *testing.T) {
	// no server listening here
	client := NewClient("http://127.0.0.1:1", "secret-key", http.DefaultClient)

	_, err := client.QueryDatabase(context.Background(), "db-1", nil)
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusInternalServerError, upstreamErr.StatusCode)
}

func TestUpstreamMessage(t *testing.T) {
	assert.Equal(t, "boom", upstreamMessage([]byte(`{"message":"boom"}`)))
	assert.Equal(t, "not json", upstreamMessage([]byte(`not json`)))
	assert.Equal(t, `{"other":"field"}`, upstreamMessage([]byte(`{"other":"field"}`)))
}
