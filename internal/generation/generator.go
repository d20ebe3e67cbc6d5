package generation

import (
	"context"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// Request is one model call: an optional system instruction followed by the
// conversation. The last message is the one being answered.
type Request struct {
	SystemInstruction string
	Messages          []domain.ChatMessage
}

// Model sends a request to a language model and returns its text reply.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Generator is what the rest of the application asks of the language model.
type Generator interface {
	// Summarize writes a Markdown summary of a timestamped transcript.
	Summarize(ctx context.Context, transcript string, metadata domain.Metadata) (string, error)

	// Chat answers message in the context of a transcript and earlier turns.
	Chat(ctx context.Context, transcript string, history []domain.ChatMessage, message string) (string, error)

	// Classify picks one of tags for a video title. It returns
	// ErrTagNotInList when the model answers with anything else.
	Classify(ctx context.Context, title string, tags []string) (string, error)
}
