package common

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Error      string              `json:"error,omitempty"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
}

const genericInternalMessage = "Internal server error"

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger zerolog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("encode response")
	}
}

// WriteSuccess writes a success envelope.
func WriteSuccess(logger zerolog.Logger, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(logger, w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError maps err onto an error envelope. With hideInternal, unclassified
// failures carry a generic message instead of err's text.
func WriteError(logger zerolog.Logger, w http.ResponseWriter, r *http.Request, err error, hideInternal bool) {
	status := http.StatusInternalServerError
	env := Envelope{Success: false}

	if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
		status = appErr.Kind.HTTPStatus()
		env.Error = appErr.Message
		env.Errors = appErr.Fields
	} else {
		logging.Ctx(r.Context(), logger).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		env.Error = err.Error()
		if hideInternal {
			env.Error = genericInternalMessage
		}
	}
	env.StatusCode = status
	WriteJSON(logger, w, status, env)
}

// WriteStatus writes a bare error envelope for failures that never reach a
// service, such as rate limiting or missing routes.
func WriteStatus(logger zerolog.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, Envelope{Success: false, Error: message, StatusCode: status})
}
