package generation

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Prompt template names as they appear in the prompts file.
const (
	PromptSummary    = "summary_prompt"
	PromptClassify   = "classify_prompt"
	PromptChatSystem = "chat_system_prompt"
)

var defaultPrompts = map[string]string{
	PromptSummary: "You are summarizing a video.\n" +
		"Title: {title}\nAuthor: {uploader}\nUploaded: {upload_date}\n\n" +
		"Write a structured Markdown summary of the transcript below: an overview, " +
		"the key points with their [MM:SS] timestamps, and a short conclusion. " +
		"Answer in the language of the transcript.\n\n{transcript}",
	PromptClassify: "Pick the single best tag for a video titled \"{title}\".\n" +
		"Available tags: {tags}\n" +
		"Reply with the tag name only, exactly as written in the list.",
	PromptChatSystem: "You are an assistant that answers questions about a video. " +
		"This is its transcript:\n\n---\n{transcript}\n---\n\n" +
		"Answer using the transcript and cite [MM:SS] timestamps where helpful.",
}

// PromptSet serves prompt templates from a JSON file of name to template.
// The file is re-read whenever its modification time changes, so templates
// can be edited while the service runs. Missing or blank entries fall back
// to built-in defaults. Keys starting with "_" are ignored.
type PromptSet struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	cache   map[string]string
	modTime time.Time
}

// NewPromptSet creates a PromptSet reading from path. An empty path serves
// only the defaults.
func NewPromptSet(path string, logger *slog.Logger) *PromptSet {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PromptSet{
		path:   path,
		logger: logger.With("component", "prompt_set"),
	}
}

// Get returns the template for name.
func (p *PromptSet) Get(name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reloadLocked()
	if tmpl := p.cache[name]; strings.TrimSpace(tmpl) != "" {
		return tmpl
	}
	return defaultPrompts[name]
}

func (p *PromptSet) reloadLocked() {
	if p.path == "" {
		return
	}

	info, err := os.Stat(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Error("failed to stat prompts file", "path", p.path, "error", err)
		}
		return
	}
	if info.ModTime().Equal(p.modTime) {
		return
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		p.logger.Error("failed to read prompts file", "path", p.path, "error", err)
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		p.logger.Error("failed to parse prompts file", "path", p.path, "error", err)
		return
	}

	templates := make(map[string]string, len(raw))
	for k, v := range raw {
		if strings.HasPrefix(k, "_") {
			continue
		}
		if s, ok := v.(string); ok {
			templates[k] = s
		}
	}

	p.cache = templates
	p.modTime = info.ModTime()
	p.logger.Info("loaded prompt templates", "path", p.path, "count", len(templates))
}

// Render substitutes {name} placeholders in tmpl.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
