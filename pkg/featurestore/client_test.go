package featurestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/gcpclient"
	"github.com/shelfsight/shelfsight/pkg/models"
)

func testGCPClient() *gcpclient.Client {
	return gcpclient.NewWithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
	)
}

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		GCP: config.GCPConfig{ProjectID: "test-project", Location: "us-central1"},
		FeatureStore: config.FeatureStoreConfig{
			StoreID:       "products_online_feature_store",
			ViewID:        "products_feature_view",
			ProductIDSlot: 8,
			URISlot:       9,
			Endpoint:      endpoint,
		},
	}
}

func neighborJSON(productID, uri string) string {
	return fmt.Sprintf(`{
		"entityKeyValues": {"keyValues": {"features": [
			{"name": "f0", "value": {"int64Value": "0"}},
			{"name": "f1", "value": {"int64Value": "1"}},
			{"name": "f2", "value": {"int64Value": "2"}},
			{"name": "f3", "value": {"int64Value": "3"}},
			{"name": "f4", "value": {"int64Value": "4"}},
			{"name": "f5", "value": {"int64Value": "5"}},
			{"name": "f6", "value": {"int64Value": "6"}},
			{"name": "f7", "value": {"int64Value": "7"}},
			{"name": "productid", "value": {"stringValue": "%s"}},
			{"name": "image_uri", "value": {"stringValue": "%s"}}
		]}}
	}`, productID, uri)
}

func searchServer(t *testing.T, neighborPayloads ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":searchNearestEntities"),
			"unexpected path %s", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.ReturnFullEntity)
		assert.NotEmpty(t, req.Query.Embedding.Value)

		body := fmt.Sprintf(
			`{"nearestNeighbors": {"neighbors": [%s]}}`,
			strings.Join(neighborPayloads, ","),
		)
		_, _ = w.Write([]byte(body))
	}))
}

func TestSearchNearestReturnsRawRecords(t *testing.T) {
	server := searchServer(t,
		neighborJSON("10.jpg", "gs://bucket/10.jpg"),
		neighborJSON("20.jpg", "gs://bucket/20.jpg"),
	)
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), testGCPClient())
	require.NoError(t, err)

	records, err := client.SearchNearest(
		context.Background(),
		models.EmbeddingVector{0.1, 0.2},
		2,
	)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Slot values pass through as raw JSON text; no parsing here.
	value, ok := records[0].Slot(8)
	require.True(t, ok)
	assert.Contains(t, value, `"stringValue": "10.jpg"`)

	value, ok = records[1].Slot(9)
	require.True(t, ok)
	assert.Contains(t, value, "gs://bucket/20.jpg")
}

func TestSearchNearestCapsAtNeighborCount(t *testing.T) {
	server := searchServer(t,
		neighborJSON("1.jpg", "gs://bucket/1.jpg"),
		neighborJSON("2.jpg", "gs://bucket/2.jpg"),
		neighborJSON("3.jpg", "gs://bucket/3.jpg"),
	)
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), testGCPClient())
	require.NoError(t, err)

	records, err := client.SearchNearest(context.Background(), models.EmbeddingVector{0.5}, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSearchNearestShortReturn(t *testing.T) {
	server := searchServer(t, neighborJSON("1.jpg", "gs://bucket/1.jpg"))
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), testGCPClient())
	require.NoError(t, err)

	records, err := client.SearchNearest(context.Background(), models.EmbeddingVector{0.5}, 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSearchNearestSentExactlyOnceOnRateLimit(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testConfig(server.URL), testGCPClient())
	require.NoError(t, err)

	_, err = client.SearchNearest(context.Background(), models.EmbeddingVector{0.5}, 5)
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a rate-limited search must not be replayed")
}

func TestResolveServingEndpoint(t *testing.T) {
	storeName := "projects/test-project/locations/us-central1/featureOnlineStores/products_online_feature_store"

	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta1/"+storeName, r.URL.Path)
		_, _ = w.Write([]byte(
			`{"dedicatedServingEndpoint": {"publicEndpointDomainName": "serving.example.com"}}`,
		))
	}))
	defer admin.Close()

	endpoint, err := resolveServingEndpoint(
		context.Background(),
		testGCPClient(),
		admin.URL,
		storeName,
	)
	require.NoError(t, err)
	assert.Equal(t, "https://serving.example.com", endpoint)
}

func TestResolveServingEndpointMissingDomain(t *testing.T) {
	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer admin.Close()

	_, err := resolveServingEndpoint(
		context.Background(),
		testGCPClient(),
		admin.URL,
		"projects/p/locations/l/featureOnlineStores/s",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no public serving endpoint")
}
