package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/orbit/orbit-api/internal/pkg/logger"
	"github.com/orbit/orbit-api/internal/pkg/response"
)

// HandleError logs the failure with the request-scoped logger and writes an
// error envelope.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := logger.FromContext(ctx).Error().
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)

	if err != nil {
		event = event.Err(err)
	}

	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// HandleInternal logs err and writes a 500 response.
func HandleInternal(ctx context.Context, w http.ResponseWriter, err error) {
	logger.FromContext(ctx).Error().Err(err).Int("status_code", http.StatusInternalServerError).Msg("Request error")
	response.InternalError(w)
}

// HandleValidation logs field errors at warn level and writes a 422 response.
func HandleValidation(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	LogValidationError(ctx, fieldErrors)
	response.ValidationError(w, fieldErrors)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}
