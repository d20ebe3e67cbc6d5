package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/vidscribe/internal/api/shared"
	"github.com/phrazzld/vidscribe/internal/redact"
)

// getPathID extracts a non-empty path parameter. It writes a 400 response
// and returns false when the parameter is missing.
func getPathID(w http.ResponseWriter, r *http.Request, paramName string, log *slog.Logger) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		log.Warn("missing path parameter", slog.String("param_name", paramName))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing "+paramName)
		return "", false
	}
	return id, true
}

// decodeAndValidate decodes the JSON body into v and validates it. It writes
// a 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// handleServiceError maps err to a status code and a safe message. When the
// error is unexpected, fallback replaces the generic message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
