package domain

import (
	"fmt"
	"strings"
)

// SubtitleSource identifies where a transcript came from.
type SubtitleSource string

// Possible subtitle sources.
const (
	SubtitleSourceOfficial      SubtitleSource = "official"
	SubtitleSourceAutoGenerated SubtitleSource = "auto_generated"
	SubtitleSourceWhisper       SubtitleSource = "whisper"
)

// Segment is one timed line of a transcript. Times are in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is an ordered list of segments with their origin.
type Transcript struct {
	Source   SubtitleSource `json:"source"`
	Language string         `json:"language,omitempty"`
	Segments []Segment      `json:"segments"`
}

// IsEmpty reports whether the transcript has no text.
func (t Transcript) IsEmpty() bool {
	for _, s := range t.Segments {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

// Timestamped renders the transcript one segment per line, prefixed with the
// segment start time.
func (t Transcript) Timestamped() string {
	lines := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		lines = append(lines, fmt.Sprintf("[%s] %s", FormatTimestamp(s.Start), strings.TrimSpace(s.Text)))
	}
	return strings.Join(lines, "\n")
}

// FormatTimestamp renders seconds as MM:SS, or HH:MM:SS from one hour on.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, rem := total/3600, total%3600
	m, s := rem/60, rem%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Metadata describes a video and its author.
type Metadata struct {
	Title             string `json:"title"`
	Author            string `json:"author"`
	UploadDate        string `json:"upload_date,omitempty"`
	ThumbnailURL      string `json:"thumbnail_url,omitempty"`
	AuthorAvatarURL   string `json:"author_avatar_url,omitempty"`
	AuthorHomepageURL string `json:"author_homepage_url,omitempty"`
}
