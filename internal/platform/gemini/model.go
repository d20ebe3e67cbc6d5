package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/vidscribe/internal/config"
	"github.com/phrazzld/vidscribe/internal/credential"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/generation"
	"google.golang.org/genai"
)

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// contentGenerator is the slice of the genai client the model uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// clientFactory builds a client for one API key.
type clientFactory func(ctx context.Context, apiKey string) (contentGenerator, error)

func newGenAIClient(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// Model implements generation.Model with the Gemini API.
type Model struct {
	pool      *credential.Pool
	modelName string
	timeout   time.Duration
	newClient clientFactory
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[string]contentGenerator
}

// NewModel creates a Model that draws API keys from pool.
func NewModel(pool *credential.Pool, cfg config.LLMConfig, logger *slog.Logger) (*Model, error) {
	return newModel(pool, cfg, logger, newGenAIClient)
}

func newModel(
	pool *credential.Pool,
	cfg config.LLMConfig,
	logger *slog.Logger,
	factory clientFactory,
) (*Model, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: credential pool cannot be nil", generation.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &Model{
		pool:      pool,
		modelName: cfg.ModelName,
		timeout:   cfg.RequestTimeout,
		newClient: factory,
		logger:    logger.With("component", "gemini_model", "model", cfg.ModelName),
		clients:   make(map[string]contentGenerator),
	}, nil
}

// Generate sends req to Gemini and returns the reply text.
func (m *Model) Generate(ctx context.Context, req generation.Request) (string, error) {
	contents := toContents(req.Messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("%w: request has no messages", generation.ErrGenerationFailed)
	}

	var genConfig *genai.GenerateContentConfig
	if strings.TrimSpace(req.SystemInstruction) != "" {
		genConfig = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: req.SystemInstruction}},
			},
		}
	}

	var reply string
	err := m.pool.Invoke(ctx, func(ctx context.Context, apiKey string) error {
		client, err := m.client(ctx, apiKey)
		if err != nil {
			return err
		}

		callCtx := ctx
		if m.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		started := time.Now()
		resp, err := client.GenerateContent(callCtx, m.modelName, contents, genConfig)
		if err != nil {
			classified := classifyError(err)
			m.logger.WarnContext(ctx, "gemini call failed",
				"error", err,
				"quota", errors.Is(classified, credential.ErrQuotaExceeded),
				"duration", time.Since(started))
			return classified
		}

		text, err := extractText(resp)
		if err != nil {
			return err
		}

		m.logger.DebugContext(ctx, "gemini call succeeded",
			"reply_length", len(text),
			"duration", time.Since(started))
		reply = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}

// client returns the cached client for apiKey, creating it on first use.
func (m *Model) client(ctx context.Context, apiKey string) (contentGenerator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[apiKey]; ok {
		return c, nil
	}
	c, err := m.newClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %w", generation.ErrInvalidConfig, err)
	}
	m.clients[apiKey] = c
	return c, nil
}

func toContents(msgs []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := roleUser
		if msg.Role == domain.ChatRoleAssistant {
			role = roleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return sb.String(), nil
}

var _ generation.Model = (*Model)(nil)
