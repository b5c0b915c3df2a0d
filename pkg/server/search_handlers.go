package server

import (
	"fmt"
	"net/http"

	"github.com/shelfsight/shelfsight/pkg/describe"
	"github.com/shelfsight/shelfsight/pkg/models"
	"github.com/shelfsight/shelfsight/pkg/server/handlertools"
)

// SearchRequest is the body of the search endpoints. ImageData is
// base64-encoded and may carry a data-URL prefix.
type SearchRequest struct {
	Query         string `json:"query"`
	ImageData     string `json:"image_data"`
	NeighborCount int    `json:"neighbor_count"`
}

// SearchResponse is the answer list plus elapsed wall time in seconds.
type SearchResponse struct {
	Results     []models.ProductDisplayRecord `json:"results"`
	ElapsedTime float64                       `json:"elapsed_time"`
}

// AnalyzeWebcamResponse is a search response plus the attributes that
// drove the query.
type AnalyzeWebcamResponse struct {
	Results     []models.ProductDisplayRecord `json:"results"`
	Features    *models.ApparelAttributes     `json:"features"`
	ElapsedTime float64                       `json:"elapsed_time"`
}

// SearchHandler returns a handler for POST requests to /api/v1/search
func SearchHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request SearchRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w,
				fmt.Errorf("%w: malformed request body: %v", models.ErrInvalidInput, err))
			return
		}

		imageData, err := handlertools.ImageFromBase64(request.ImageData)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		query := models.SearchQuery{
			Text:          request.Query,
			ImageData:     imageData,
			NeighborCount: neighborCountOrDefault(appState, request.NeighborCount),
		}
		result, err := appState.Searcher.Search(r.Context(), query)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		if err := handlertools.EncodeJSON(w, SearchResponse{
			Results:     result.Results,
			ElapsedTime: result.Elapsed.Seconds(),
		}); err != nil {
			handlertools.RenderError(w, err)
		}
	}
}

// AnalyzeImageHandler returns a handler for POST requests to
// /api/v1/analyze-image. It describes the apparel in the image without
// searching and responds with the attributes object itself.
func AnalyzeImageHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request SearchRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w,
				fmt.Errorf("%w: malformed request body: %v", models.ErrInvalidInput, err))
			return
		}

		imageData, err := handlertools.ImageFromBase64(request.ImageData)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		attrs, err := appState.Describer.Describe(r.Context(), imageData)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		if err := handlertools.EncodeJSON(w, attrs); err != nil {
			handlertools.RenderError(w, err)
		}
	}
}

// AnalyzeWebcamHandler returns a handler for POST requests to
// /api/v1/analyze-webcam. It describes the captured frame and searches
// with a query built from the attributes, falling back to the frame
// itself when the attributes carry no signal.
func AnalyzeWebcamHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request SearchRequest
		if err := handlertools.DecodeJSON(r, &request); err != nil {
			handlertools.RenderError(w,
				fmt.Errorf("%w: malformed request body: %v", models.ErrInvalidInput, err))
			return
		}

		imageData, err := handlertools.ImageFromBase64(request.ImageData)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		attrs, err := appState.Describer.Describe(r.Context(), imageData)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		query := models.SearchQuery{
			Text:          describe.QueryFromAttributes(attrs),
			NeighborCount: neighborCountOrDefault(appState, request.NeighborCount),
		}
		if query.Text == "" {
			query.ImageData = imageData
		}
		result, err := appState.Searcher.Search(r.Context(), query)
		if err != nil {
			handlertools.RenderError(w, err)
			return
		}

		if err := handlertools.EncodeJSON(w, AnalyzeWebcamResponse{
			Results:     result.Results,
			Features:    attrs,
			ElapsedTime: result.Elapsed.Seconds(),
		}); err != nil {
			handlertools.RenderError(w, err)
		}
	}
}

// HealthCheckHandler reports liveness for the demo front end.
func HealthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	_ = handlertools.EncodeJSON(w, map[string]string{"status": "healthy"})
}

func neighborCountOrDefault(appState *models.AppState, requested int) int {
	if requested == 0 {
		return appState.Config.Search.DefaultNeighborCount
	}
	return requested
}
