package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var _ models.ProductSearcher = &mockSearcher{}

type mockSearcher struct {
	result    *models.SearchResult
	err       error
	lastQuery *models.SearchQuery
}

func (m *mockSearcher) Search(
	_ context.Context,
	query models.SearchQuery,
) (*models.SearchResult, error) {
	m.lastQuery = &query
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

var _ models.ImageDescriber = &mockDescriber{}

type mockDescriber struct {
	attrs *models.ApparelAttributes
	err   error
}

func (m *mockDescriber) Describe(
	_ context.Context,
	_ []byte,
) (*models.ApparelAttributes, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attrs, nil
}

func testAppState(searcher *mockSearcher, describer *mockDescriber) *models.AppState {
	return &models.AppState{
		Searcher:  searcher,
		Describer: describer,
		Config: &config.Config{
			Search: config.SearchConfig{
				DefaultNeighborCount: 10,
				MaxNeighborCount:     100,
			},
		},
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestSearchRoute(t *testing.T) {
	searcher := &mockSearcher{
		result: &models.SearchResult{
			Results: []models.ProductDisplayRecord{
				{ProductID: "10", ImageURL: "https://signed/10.jpg", Aisle: "A1"},
				{ProductID: "20", ImageURL: "https://signed/20.jpg", Aisle: models.AisleUnknown},
			},
			Elapsed: 1500 * time.Millisecond,
		},
	}
	router := setupRouter(testAppState(searcher, &mockDescriber{}))

	recorder := postJSON(t, router, "/api/v1/search", SearchRequest{
		Query: "blue sweatshirt",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "10", resp.Results[0].ProductID)
	assert.Equal(t, "A1", resp.Results[0].Aisle)
	assert.InDelta(t, 1.5, resp.ElapsedTime, 0.001)

	require.NotNil(t, searcher.lastQuery)
	assert.Equal(t, "blue sweatshirt", searcher.lastQuery.Text)
	assert.Equal(t, 10, searcher.lastQuery.NeighborCount, "default neighbor count")
}

func TestSearchRouteDecodesImageData(t *testing.T) {
	searcher := &mockSearcher{result: &models.SearchResult{}}
	router := setupRouter(testAppState(searcher, &mockDescriber{}))

	imageData := []byte{0xff, 0xd8, 0xff, 0xe0}
	recorder := postJSON(t, router, "/api/v1/search", SearchRequest{
		ImageData:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData),
		NeighborCount: 5,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NotNil(t, searcher.lastQuery)
	assert.Equal(t, imageData, searcher.lastQuery.ImageData)
	assert.Equal(t, 5, searcher.lastQuery.NeighborCount)
}

func TestSearchRouteErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid input",
			err:      fmt.Errorf("%w: no inputs", models.ErrInvalidInput),
			expected: http.StatusBadRequest,
		},
		{
			name:     "embedding unavailable",
			err:      fmt.Errorf("embed stage: %w", models.ErrEmbeddingUnavailable),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "index search failed",
			err:      fmt.Errorf("index search stage: %w", models.ErrIndexSearchFailed),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupRouter(
				testAppState(&mockSearcher{err: tc.err}, &mockDescriber{}),
			)
			recorder := postJSON(t, router, "/api/v1/search", SearchRequest{
				Query: "anything",
			})
			require.Equal(t, tc.expected, recorder.Code)

			var apiErr struct {
				Error   string `json:"error"`
				Details string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
			assert.NotEmpty(t, apiErr.Error)
			assert.Contains(t, apiErr.Details, tc.err.Error())
		})
	}
}

func TestSearchRouteRejectsBadBase64(t *testing.T) {
	router := setupRouter(testAppState(&mockSearcher{}, &mockDescriber{}))
	recorder := postJSON(t, router, "/api/v1/search", SearchRequest{
		ImageData: "%%% not base64 %%%",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAnalyzeImageRoute(t *testing.T) {
	describer := &mockDescriber{
		attrs: &models.ApparelAttributes{
			ApparelType:    "sweatshirt",
			Color:          "blue",
			IsValidApparel: true,
		},
	}
	router := setupRouter(testAppState(&mockSearcher{}, describer))

	recorder := postJSON(t, router, "/api/v1/analyze-image", SearchRequest{
		ImageData: base64.StdEncoding.EncodeToString([]byte("frame")),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	// The attributes object is the body, not wrapped in an envelope.
	var resp models.ApparelAttributes
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "sweatshirt", resp.ApparelType)
	assert.True(t, resp.IsValidApparel)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &raw))
	assert.Contains(t, raw, "apparel_type")
	assert.Contains(t, raw, "is_valid_apparel")
	assert.IsType(t, "", raw["features"], "no envelope around the attributes")
}

func TestAnalyzeWebcamRoute(t *testing.T) {
	searcher := &mockSearcher{
		result: &models.SearchResult{
			Results: []models.ProductDisplayRecord{
				{ProductID: "7", ImageURL: "https://signed/7.jpg", Aisle: "B2"},
			},
			Elapsed: 2 * time.Second,
		},
	}
	describer := &mockDescriber{
		attrs: &models.ApparelAttributes{
			ApparelType:    "sweatshirt",
			Color:          "blue",
			Gender:         "boys",
			IsValidApparel: true,
		},
	}
	router := setupRouter(testAppState(searcher, describer))

	recorder := postJSON(t, router, "/api/v1/analyze-webcam", SearchRequest{
		ImageData: base64.StdEncoding.EncodeToString([]byte("frame")),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp AnalyzeWebcamResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Features)
	assert.InDelta(t, 2.0, resp.ElapsedTime, 0.001)

	require.NotNil(t, searcher.lastQuery)
	assert.Equal(t, "blue sweatshirt for boys", searcher.lastQuery.Text)
	assert.Nil(t, searcher.lastQuery.ImageData, "text query takes over from the frame")
}

func TestAnalyzeWebcamRouteFallsBackToFrame(t *testing.T) {
	searcher := &mockSearcher{result: &models.SearchResult{}}
	describer := &mockDescriber{attrs: &models.ApparelAttributes{}}
	router := setupRouter(testAppState(searcher, describer))

	frame := []byte("frame")
	recorder := postJSON(t, router, "/api/v1/analyze-webcam", SearchRequest{
		ImageData: base64.StdEncoding.EncodeToString(frame),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	require.NotNil(t, searcher.lastQuery)
	assert.Empty(t, searcher.lastQuery.Text)
	assert.Equal(t, frame, searcher.lastQuery.ImageData)
}

func TestHealthRoutes(t *testing.T) {
	router := setupRouter(testAppState(&mockSearcher{}, &mockDescriber{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, recorder.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestMalformedBodyGetsJSONError(t *testing.T) {
	router := setupRouter(testAppState(&mockSearcher{}, &mockDescriber{}))

	for _, path := range []string{
		"/api/v1/search",
		"/api/v1/analyze-image",
		"/api/v1/analyze-webcam",
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost, path, bytes.NewReader([]byte("{not json")),
			)
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			require.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

			var apiErr struct {
				Error   string `json:"error"`
				Details string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
			assert.Equal(t, "Bad Request", apiErr.Error)
			assert.Contains(t, apiErr.Details, "malformed request body")
		})
	}
}

func TestRecovererRendersJSON(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(
		func(http.ResponseWriter, *http.Request) {
			panic("boom")
		},
	))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var apiErr struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &apiErr))
	assert.Equal(t, "Internal Server Error", apiErr.Error)
}

func TestVersionHeader(t *testing.T) {
	router := setupRouter(testAppState(&mockSearcher{}, &mockDescriber{}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.NotEmpty(t, recorder.Header().Get(versionHeader))
}
