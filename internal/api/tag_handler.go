package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vidscribe/internal/api/shared"
	"github.com/phrazzld/vidscribe/internal/platform/logger"
)

// TagService manages the tag list.
type TagService interface {
	ListTags(ctx context.Context) ([]string, error)
	AddTag(ctx context.Context, name string) ([]string, error)
	DeleteTag(ctx context.Context, name string) ([]string, error)
}

// TagHandler serves the /api/tags routes.
type TagHandler struct {
	tags   TagService
	logger *slog.Logger
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(tags TagService, logger *slog.Logger) *TagHandler {
	if tags == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tag service cannot be nil for TagHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TagHandler")
	}

	return &TagHandler{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_handler")),
	}
}

// ListTags handles GET /api/tags.
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to list tags")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(tags))
}

// AddTag handles POST /api/tags.
func (h *TagHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req TagRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	tags, err := h.tags.AddTag(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, r, err, "Failed to add tag")
		return
	}

	log.Info("tag added", slog.String("tag", req.Name))
	shared.RespondWithJSON(w, r, http.StatusOK, TagsResponse{OK: true, Tags: nonNil(tags)})
}

// DeleteTag handles DELETE /api/tags. The name is read from the JSON body,
// or from the name query parameter when the body is empty.
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req TagRequest
	if name := r.URL.Query().Get("name"); name != "" && r.ContentLength <= 0 {
		req.Name = name
		if err := shared.ValidateRequest(req); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
			return
		}
	} else if !decodeAndValidate(w, r, &req, log) {
		return
	}

	tags, err := h.tags.DeleteTag(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, r, err, "Failed to delete tag")
		return
	}

	log.Info("tag deleted", slog.String("tag", req.Name))
	shared.RespondWithJSON(w, r, http.StatusOK, TagsResponse{OK: true, Tags: nonNil(tags)})
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
