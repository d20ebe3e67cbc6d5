package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// Placeholder values used when metadata is missing.
const (
	unknownTitle  = "Unknown title"
	unknownAuthor = "Unknown author"
	unknownDate   = "Unknown date"
)

// Service implements Generator on top of a Model and a PromptSet.
type Service struct {
	model   Model
	prompts *PromptSet
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(model Model, prompts *PromptSet, logger *slog.Logger) (*Service, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model cannot be nil", ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompts cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}
	return &Service{
		model:   model,
		prompts: prompts,
		logger:  logger.With("component", "generation_service"),
	}, nil
}

// Summarize writes a summary of transcript.
func (s *Service) Summarize(ctx context.Context, transcript string, metadata domain.Metadata) (string, error) {
	prompt := Render(s.prompts.Get(PromptSummary), map[string]string{
		"transcript":  transcript,
		"title":       orDefault(metadata.Title, unknownTitle),
		"uploader":    orDefault(metadata.Author, unknownAuthor),
		"upload_date": orDefault(metadata.UploadDate, unknownDate),
	})

	reply, err := s.generate(ctx, Request{
		Messages: []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	s.logger.Debug("summary generated", "length", len(reply))
	return reply, nil
}

// Chat answers message given the transcript and earlier turns.
func (s *Service) Chat(
	ctx context.Context,
	transcript string,
	history []domain.ChatMessage,
	message string,
) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}

	system := Render(s.prompts.Get(PromptChatSystem), map[string]string{"transcript": transcript})

	msgs := make([]domain.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs, domain.ChatMessage{Role: domain.ChatRoleUser, Content: message})

	return s.generate(ctx, Request{SystemInstruction: system, Messages: msgs})
}

// Classify asks the model to choose one of tags for title.
func (s *Service) Classify(ctx context.Context, title string, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", fmt.Errorf("%w: no tags to choose from", ErrTagNotInList)
	}

	prompt := Render(s.prompts.Get(PromptClassify), map[string]string{
		"title": title,
		"tags":  strings.Join(tags, ", "),
	})

	reply, err := s.generate(ctx, Request{
		Messages: []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	chosen := cleanTag(reply)
	for _, tag := range tags {
		if tag == chosen {
			return tag, nil
		}
	}
	for _, tag := range tags {
		if strings.EqualFold(tag, chosen) {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTagNotInList, chosen)
}

func (s *Service) generate(ctx context.Context, req Request) (string, error) {
	reply, err := s.model.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrInvalidResponse)
	}
	return reply, nil
}

// cleanTag strips whitespace, quotes and trailing punctuation the model
// tends to add around a one-word answer.
func cleanTag(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'`“”‘’.。 \n\t")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

var _ Generator = (*Service)(nil)
