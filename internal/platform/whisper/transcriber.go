package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vidscribe/internal/config"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/platform/ytdlp"
	"github.com/phrazzld/vidscribe/internal/task"
)

var (
	// ErrNilDownloader is returned when no audio downloader is given.
	ErrNilDownloader = errors.New("audio downloader cannot be nil")

	// ErrNilLogger is returned when no logger is given.
	ErrNilLogger = errors.New("logger cannot be nil")

	// ErrOutputMissing is returned when whisper exits without writing its
	// JSON result.
	ErrOutputMissing = errors.New("whisper output not found")
)

// AudioDownloader fetches a video's audio track to a local file.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, videoURL, stem string) (string, error)
}

// Transcriber downloads audio and runs whisper over it.
type Transcriber struct {
	path       string
	model      string
	language   string
	workDir    string
	downloader AudioDownloader
	runner     ytdlp.CommandRunner
	logger     *slog.Logger
}

// NewTranscriber creates a Transcriber from the media configuration.
func NewTranscriber(cfg config.MediaConfig, downloader AudioDownloader, logger *slog.Logger) (*Transcriber, error) {
	return newTranscriber(cfg, downloader, ytdlp.ExecRunner{}, logger)
}

func newTranscriber(
	cfg config.MediaConfig,
	downloader AudioDownloader,
	runner ytdlp.CommandRunner,
	logger *slog.Logger,
) (*Transcriber, error) {
	if downloader == nil {
		return nil, ErrNilDownloader
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	path := strings.TrimSpace(cfg.WhisperPath)
	if path == "" {
		path = "whisper"
	}
	model := strings.TrimSpace(cfg.WhisperModel)
	if model == "" {
		model = "base"
	}

	return &Transcriber{
		path:       path,
		model:      model,
		language:   strings.TrimSpace(cfg.Language),
		workDir:    cfg.WorkDir,
		downloader: downloader,
		runner:     runner,
		logger:     logger.With("component", "whisper"),
	}, nil
}

// Transcribe downloads the audio for videoURL and transcribes it. Progress
// is reported as whisper advances through the audio. Downloaded audio and
// whisper output are removed before returning.
func (t *Transcriber) Transcribe(
	ctx context.Context,
	videoURL string,
	onProgress task.ProgressFunc,
) (domain.Transcript, error) {
	jobDir := filepath.Join(t.workDir, "whisper-"+uuid.NewString())
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return domain.Transcript{}, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(jobDir); err != nil {
			t.logger.Warn("failed to clean up work directory", "dir", jobDir, "error", err)
		}
	}()

	audio, err := t.downloader.DownloadAudio(ctx, videoURL, filepath.Join(jobDir, "audio"))
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("failed to download audio: %w", err)
	}

	args := []string{
		audio,
		"--model", t.model,
		"--output_format", "json",
		"--output_dir", jobDir,
		"--verbose", "False",
	}
	if t.language != "" {
		args = append(args, "--language", t.language)
	}

	report := progressReporter(onProgress)
	started := time.Now()
	t.logger.InfoContext(ctx, "starting transcription", "model", t.model, "audio", filepath.Base(audio))

	if _, err := t.runner.Run(ctx, t.path, args, func(_ ytdlp.OutputStream, line string) {
		if pct, ok := ParseProgress(line); ok {
			report(pct)
		}
	}); err != nil {
		return domain.Transcript{}, err
	}

	resultPath := strings.TrimSuffix(audio, filepath.Ext(audio)) + ".json"
	raw, err := os.ReadFile(resultPath)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %w", ErrOutputMissing, err)
	}

	transcript, err := ParseResult(raw)
	if err != nil {
		return domain.Transcript{}, err
	}
	report(100)

	t.logger.InfoContext(ctx, "transcription finished",
		"segments", len(transcript.Segments),
		"language", transcript.Language,
		"duration", time.Since(started))
	return transcript, nil
}

// progressReporter drops repeated and backwards percentages.
func progressReporter(onProgress task.ProgressFunc) func(float64) {
	last := -1.0
	return func(pct float64) {
		if onProgress == nil || pct <= last {
			return
		}
		last = pct
		onProgress(pct)
	}
}

// progressPattern matches a tqdm bar such as " 45%|████▌     | 1234/2740".
var progressPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)%\|`)

// ParseProgress extracts the percentage from one line of whisper output.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindAllStringSubmatch(line, -1)
	if len(m) == 0 {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[len(m)-1][1], 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

type result struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// ParseResult decodes whisper's JSON output into a transcript.
func ParseResult(raw []byte) (domain.Transcript, error) {
	var r result
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Transcript{}, fmt.Errorf("failed to decode whisper output: %w", err)
	}

	tr := domain.Transcript{
		Source:   domain.SubtitleSourceWhisper,
		Language: r.Language,
		Segments: make([]domain.Segment, 0, len(r.Segments)),
	}
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		tr.Segments = append(tr.Segments, domain.Segment{Start: s.Start, End: s.End, Text: text})
	}
	return tr, nil
}

var _ task.Transcriber = (*Transcriber)(nil)
