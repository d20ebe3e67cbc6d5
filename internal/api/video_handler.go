package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vidscribe/internal/api/shared"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/platform/logger"
	"github.com/phrazzld/vidscribe/internal/service"
	"github.com/phrazzld/vidscribe/internal/store"
)

// VideoService is the subset of service.VideoService used by VideoHandler.
type VideoService interface {
	Submit(ctx context.Context, rawInput string) (service.SubmitResult, error)
	GetStatus(ctx context.Context, taskID string) (domain.Task, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, u store.ProjectUpdate) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ClassifyAll(ctx context.Context) (service.ClassifyResult, error)
}

// VideoHandler serves submission, status and project routes.
type VideoHandler struct {
	videos VideoService
	logger *slog.Logger
}

// NewVideoHandler creates a VideoHandler.
func NewVideoHandler(videos VideoService, logger *slog.Logger) *VideoHandler {
	if videos == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("video service cannot be nil for VideoHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for VideoHandler")
	}

	return &VideoHandler{
		videos: videos,
		logger: logger.With(slog.String("component", "video_handler")),
	}
}

// Process handles POST /api/process.
func (h *VideoHandler) Process(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ProcessRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	res, err := h.videos.Submit(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, r, err, "Failed to submit video")
		return
	}

	log.Info("video submitted", slog.String("task_id", res.TaskID), slog.Bool("reused", res.Reused))
	status := http.StatusAccepted
	if res.Reused {
		status = http.StatusOK
	}
	shared.RespondWithJSON(w, r, status, ProcessResponse{TaskID: res.TaskID, Reused: res.Reused})
}

// GetStatus handles GET /api/status/{id}.
func (h *VideoHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := getPathID(w, r, "id", log)
	if !ok {
		return
	}

	t, err := h.videos.GetStatus(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "Failed to get task status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, t)
}

// ListProjects handles GET /api/projects.
func (h *VideoHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.videos.ListProjects(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to list projects")
		return
	}

	out := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		out[i] = projectToSummary(p)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetProject handles GET /api/projects/{id}.
func (h *VideoHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := getPathID(w, r, "id", log)
	if !ok {
		return
	}

	p, err := h.videos.GetProject(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "Failed to get project")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, p)
}

// UpdateProject handles PATCH /api/projects/{id}.
func (h *VideoHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := getPathID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	p, err := h.videos.UpdateProject(r.Context(), id, store.ProjectUpdate{
		Title:    req.Title,
		Tag:      req.Tag,
		Favorite: req.Favorite,
	})
	if err != nil {
		handleServiceError(w, r, err, "Failed to update project")
		return
	}

	log.Debug("project updated", slog.String("project_id", id))
	shared.RespondWithJSON(w, r, http.StatusOK, UpdateProjectResponse{
		OK:       true,
		Title:    p.Title,
		Tag:      p.Tag,
		Favorite: p.Favorite,
	})
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *VideoHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := getPathID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.videos.DeleteProject(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "Failed to delete project")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, OKResponse{OK: true})
}

// ClassifyAll handles POST /api/classify-all.
func (h *VideoHandler) ClassifyAll(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	res, err := h.videos.ClassifyAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Failed to classify projects")
		return
	}

	log.Info("batch classification finished",
		slog.Int("classified", res.Classified),
		slog.Int("failed", res.Failed))
	shared.RespondWithJSON(w, r, http.StatusOK, ClassifyAllResponse{
		OK:         true,
		Classified: res.Classified,
		Failed:     res.Failed,
	})
}
