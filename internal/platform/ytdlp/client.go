package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/vidscribe/internal/config"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/task"
)

var (
	// ErrNilLogger is returned when a client is created without a logger.
	ErrNilLogger = errors.New("logger cannot be nil")

	// ErrAudioNotFound is returned when yt-dlp exits cleanly but no audio
	// file was written.
	ErrAudioNotFound = errors.New("downloaded audio file not found")
)

const (
	subtitleFetchTimeout = 15 * time.Second
	maxSubtitleBytes     = 32 << 20
	userAgent            = "Mozilla/5.0 (compatible; vidscribe)"
)

// Client runs yt-dlp for one configured binary. It remembers the last info
// document so metadata and subtitle lookups for the same video share one
// yt-dlp call.
type Client struct {
	path        string
	langs       []string
	cookiesFile string
	runner      CommandRunner
	httpClient  *http.Client
	logger      *slog.Logger

	mu       sync.Mutex
	cacheURL string
	cached   *videoInfo
}

// NewClient creates a Client from the media configuration.
func NewClient(cfg config.MediaConfig, logger *slog.Logger) (*Client, error) {
	return newClient(cfg, ExecRunner{}, &http.Client{Timeout: subtitleFetchTimeout}, logger)
}

func newClient(
	cfg config.MediaConfig,
	runner CommandRunner,
	httpClient *http.Client,
	logger *slog.Logger,
) (*Client, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	path := strings.TrimSpace(cfg.YtDlpPath)
	if path == "" {
		path = "yt-dlp"
	}

	return &Client{
		path:        path,
		langs:       append([]string(nil), cfg.SubtitleLangs...),
		cookiesFile: strings.TrimSpace(cfg.CookiesFile),
		runner:      runner,
		httpClient:  httpClient,
		logger:      logger.With("component", "ytdlp"),
	}, nil
}

// ExtractMetadata looks up the title, author and artwork of a video.
func (c *Client) ExtractMetadata(ctx context.Context, videoURL string) (domain.Metadata, error) {
	info, err := c.info(ctx, videoURL)
	if err != nil {
		return domain.Metadata{}, err
	}
	return info.metadata(), nil
}

// FetchSubtitles downloads the best available subtitle track. It returns
// domain.ErrSubtitlesUnavailable when the video has no usable track.
func (c *Client) FetchSubtitles(ctx context.Context, videoURL string) (domain.Transcript, error) {
	info, err := c.info(ctx, videoURL)
	if err != nil {
		return domain.Transcript{}, err
	}

	track, ok := chooseTrack(info, c.langs)
	if !ok {
		return domain.Transcript{}, fmt.Errorf("%w: no track in %v", domain.ErrSubtitlesUnavailable, c.langs)
	}

	logger := c.logger.With("language", track.Language, "source", track.Source, "format", track.Format.Ext)
	logger.DebugContext(ctx, "downloading subtitles")

	raw, err := c.download(ctx, track.Format.URL)
	if err != nil {
		return domain.Transcript{}, err
	}

	segments, err := parseSubtitles(track.Format.Ext, raw)
	if err != nil {
		return domain.Transcript{}, err
	}
	if len(segments) == 0 {
		return domain.Transcript{}, fmt.Errorf("%w: %s track is empty", domain.ErrSubtitlesUnavailable, track.Language)
	}

	logger.InfoContext(ctx, "fetched subtitles", "segments", len(segments))
	return domain.Transcript{
		Source:   track.Source,
		Language: track.Language,
		Segments: segments,
	}, nil
}

// DownloadAudio extracts the audio track to stem with whatever extension
// yt-dlp picks and returns the written path.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, stem string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"-f", "bestaudio/best",
		"-x", "--audio-format", "m4a",
		"-o", stem + ".%(ext)s",
	}
	args = append(c.commonArgs(), args...)
	args = append(args, videoURL)

	started := time.Now()
	if _, err := c.runner.Run(ctx, c.path, args, nil); err != nil {
		return "", err
	}

	path, err := findAudio(stem)
	if err != nil {
		return "", err
	}
	c.logger.InfoContext(ctx, "downloaded audio", "path", path, "duration", time.Since(started))
	return path, nil
}

// info returns the yt-dlp info document for videoURL.
func (c *Client) info(ctx context.Context, videoURL string) (*videoInfo, error) {
	c.mu.Lock()
	if c.cached != nil && c.cacheURL == videoURL {
		info := c.cached
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	args := append(c.commonArgs(), "-J", "--skip-download", "--no-playlist", "--no-warnings", videoURL)
	out, err := c.runner.Run(ctx, c.path, args, nil)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, errors.New("yt-dlp returned empty output")
	}

	info, err := parseVideoInfo(out)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cacheURL, c.cached = videoURL, info
	c.mu.Unlock()
	return info, nil
}

func (c *Client) commonArgs() []string {
	if c.cookiesFile == "" {
		return nil
	}
	return []string{"--cookies", c.cookiesFile}
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build subtitle request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitles: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download subtitles: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSubtitleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w", err)
	}
	return body, nil
}

// audioExtensions are checked in order after a download.
var audioExtensions = []string{"m4a", "mp3", "wav", "ogg", "opus", "webm", "mp4"}

func findAudio(stem string) (string, error) {
	for _, ext := range audioExtensions {
		candidate := stem + "." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	matches, err := filepath.Glob(stem + ".*")
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: %s.*", ErrAudioNotFound, stem)
}

var (
	_ task.MetadataExtractor = (*Client)(nil)
	_ task.SubtitleFetcher   = (*Client)(nil)
)
