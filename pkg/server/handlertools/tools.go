package handlertools

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shelfsight/shelfsight/internal"
	"github.com/shelfsight/shelfsight/pkg/models"
)

var log = internal.GetLogger()

// APIError is the JSON error body returned by every handler.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// EncodeJSON encodes data into JSON and writes it to the response writer.
func EncodeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a JSON request body into the provided data struct.
func DecodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// RenderError writes err as a JSON error body with a status derived from
// the error taxonomy: invalid input maps to 400, unknown resources to
// 404, everything else to 500.
func RenderError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status != http.StatusNotFound {
		log.Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Error:   http.StatusText(status),
		Details: err.Error(),
	})
}

// StatusForError maps a pipeline error to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ImageFromBase64 decodes a base64 image payload, tolerating an optional
// data-URL prefix such as "data:image/jpeg;base64,". An empty payload
// decodes to nil.
func ImageFromBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if i := strings.Index(encoded, ";base64,"); i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	imageData, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image data: %v",
			models.ErrInvalidInput, err)
	}
	return imageData, nil
}
