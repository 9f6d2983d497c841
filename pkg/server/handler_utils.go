package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/careline/careline/internal"
	"github.com/careline/careline/pkg/models"
)

var log = internal.GetLogger()

const OKResponse = "OK"

// APIError represents an error response.
type APIError struct {
	Message string `json:"message"`
}

// encodeJSON encodes data into JSON and writes it to the response writer.
func encodeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes a JSON request body into the provided data struct.
func decodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// renderError renders an error response.
func renderError(w http.ResponseWriter, err error, status int) {
	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}
	http.Error(w, err.Error(), status)
}

// renderStoreError maps store errors onto HTTP statuses. Unknown errors
// become 500s.
func renderStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		renderError(w, err, http.StatusNotFound)
	case errors.Is(err, models.ErrBadRequest):
		renderError(w, err, http.StatusBadRequest)
	default:
		renderError(w, err, http.StatusInternalServerError)
	}
}

// extractQueryStringValueToInt extracts a query string value and converts it to an int
// if it is not empty. If the value is empty, it returns 0.
func extractQueryStringValueToInt[T ~int | int64](
	r *http.Request,
	param string,
) (T, error) {
	p := r.URL.Query().Get(param)
	if p == "" {
		return 0, nil
	}
	pInt, err := strconv.ParseInt(p, 10, 64)
	if err != nil {
		return 0, err
	}
	return T(pInt), nil
}
