package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/vidscribe/internal/api/shared"
	"github.com/phrazzld/vidscribe/internal/platform/logger"
)

// ChatService answers follow-up questions about a project.
type ChatService interface {
	Reply(ctx context.Context, projectID, message, transcript string) (string, error)
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	chat   ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chat ChatService, logger *slog.Logger) *ChatHandler {
	if chat == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("chat service cannot be nil for ChatHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ChatHandler")
	}

	return &ChatHandler{
		chat:   chat,
		logger: logger.With(slog.String("component", "chat_handler")),
	}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ChatRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.ProjectID, req.Message, req.Transcript)
	if err != nil {
		handleServiceError(w, r, err, "AI reply failed")
		return
	}

	log.Debug("chat reply sent", slog.String("project_id", req.ProjectID))
	shared.RespondWithJSON(w, r, http.StatusOK, ChatResponse{Reply: reply})
}
