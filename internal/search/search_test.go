package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, Index: "products"})
	require.NoError(t, err)
	return client, &requests
}

func TestIndexProduct(t *testing.T) {
	client, requests := newTestClient(t, http.StatusCreated, `{"result":"created"}`)

	err := client.IndexProduct(context.Background(), ProductDocument{ID: "p1", Name: "Classic Tee", Price: 24, Active: true})
	require.NoError(t, err)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/products/_doc/p1", req.path)

	var doc ProductDocument
	require.NoError(t, json.Unmarshal([]byte(req.body), &doc))
	assert.Equal(t, "Classic Tee", doc.Name)
}

func TestSearchProductsReturnsIDsInOrder(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{
		"hits": {"total": {"value": 2}, "hits": [{"_id": "b"}, {"_id": "a"}]}
	}`)

	ids, total, err := client.SearchProducts(context.Background(), "tee", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)
	assert.EqualValues(t, 2, total)

	require.Len(t, *requests, 1)
	assert.Equal(t, "/products/_search", (*requests)[0].path)
	assert.True(t, strings.Contains((*requests)[0].body, `"multi_match"`))
}

func TestSearchProductsSurfacesErrors(t *testing.T) {
	client, _ := newTestClient(t, http.StatusBadRequest, `{"error":"bad query"}`)

	_, _, err := client.SearchProducts(context.Background(), "tee", 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad query")
}

func TestDeleteMissingProductIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"result":"not_found"}`)
	assert.NoError(t, client.DeleteProduct(context.Background(), "gone"))
}
