package common

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/validation"
)

// DecodeJSON reads at most maxBytes of r's body into dest and validates the
// struct tags on dest.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dest any) error {
	if maxBytes <= 0 {
		maxBytes = MaxRequestBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.Validation("Request body is too large")
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body is required")
		default:
			return apperr.Validation("Invalid JSON body")
		}
	}
	return validation.Struct(dest)
}
