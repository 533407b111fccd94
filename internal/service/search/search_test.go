package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
	"hits": {
		"total": {"value": 2},
		"hits": [
			{"_source": {"id": 1, "name": "Margherita", "description": "classic pizza", "price": 10.99, "category": "pizza", "is_available": true}},
			{"_source": {"id": 2, "name": "Marinara", "description": "no cheese", "price": 9.50, "category": "pizza", "is_available": false}}
		]
	}
}`

func newFixtureClient(t *testing.T, status int, body string) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchDecodesHits(t *testing.T) {
	client := newFixtureClient(t, http.StatusOK, searchResponse)

	total, foods, err := Search(context.Background(), client, "food", "pizza", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, foods, 2)

	require.Equal(t, uint(1), foods[0].ID)
	require.Equal(t, "Margherita", foods[0].Name)
	require.InDelta(t, 10.99, foods[0].Price, 1e-9)
	require.Equal(t, "pizza", foods[0].Category)
	require.True(t, foods[0].IsAvailable)

	require.Equal(t, "Marinara", foods[1].Name)
	require.False(t, foods[1].IsAvailable)
}

func TestSearchEmptyResult(t *testing.T) {
	client := newFixtureClient(t, http.StatusOK, `{"hits": {"total": {"value": 0}, "hits": []}}`)

	total, foods, err := Search(context.Background(), client, "food", "nothing", 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, foods)
}

func TestSearchErrorResponse(t *testing.T) {
	client := newFixtureClient(t, http.StatusBadRequest, `{"error": {"reason": "bad query"}}`)

	_, _, err := Search(context.Background(), client, "food", "pizza", 0, 10)
	require.Error(t, err)
}
