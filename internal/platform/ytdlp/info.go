package ytdlp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// subtitleFormat is one downloadable rendition of a subtitle track.
type subtitleFormat struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

type thumbnail struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// videoInfo is the subset of `yt-dlp -J` output the service reads.
type videoInfo struct {
	ID                string                      `json:"id"`
	Title             string                      `json:"title"`
	Uploader          string                      `json:"uploader"`
	Channel           string                      `json:"channel"`
	UploaderID        string                      `json:"uploader_id"`
	UploaderURL       string                      `json:"uploader_url"`
	ChannelURL        string                      `json:"channel_url"`
	UploadDate        string                      `json:"upload_date"`
	WebpageURL        string                      `json:"webpage_url"`
	OriginalURL       string                      `json:"original_url"`
	Thumbnail         string                      `json:"thumbnail"`
	Thumbnails        []thumbnail                 `json:"thumbnails"`
	UploaderThumbnail string                      `json:"uploader_thumbnail"`
	ChannelThumbnail  string                      `json:"channel_thumbnail"`
	Avatar            string                      `json:"avatar"`
	Subtitles         map[string][]subtitleFormat `json:"subtitles"`
	AutomaticCaptions map[string][]subtitleFormat `json:"automatic_captions"`
}

func parseVideoInfo(data []byte) (*videoInfo, error) {
	var info videoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
	}
	return &info, nil
}

// metadata maps the info document onto domain.Metadata.
func (v *videoInfo) metadata() domain.Metadata {
	m := domain.Metadata{
		Title:      v.Title,
		Author:     firstNonEmpty(v.Uploader, v.Channel, v.UploaderID),
		UploadDate: FormatUploadDate(v.UploadDate),
	}

	m.AuthorHomepageURL = firstNonEmpty(v.UploaderURL, v.ChannelURL)
	if m.AuthorHomepageURL == "" && v.UploaderID != "" {
		page := firstNonEmpty(v.WebpageURL, v.OriginalURL)
		if strings.Contains(page, "bilibili.com") {
			m.AuthorHomepageURL = "https://space.bilibili.com/" + v.UploaderID
		}
	}

	m.AuthorAvatarURL = firstNonEmpty(v.UploaderThumbnail, v.ChannelThumbnail, v.Avatar)
	if m.AuthorAvatarURL == "" {
		for _, t := range v.Thumbnails {
			if t.ID == "avatar" {
				m.AuthorAvatarURL = t.URL
				break
			}
		}
	}

	m.ThumbnailURL = v.Thumbnail
	if m.ThumbnailURL == "" && len(v.Thumbnails) > 0 {
		m.ThumbnailURL = v.Thumbnails[len(v.Thumbnails)-1].URL
	}
	return m
}

// FormatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD. Other values
// are returned trimmed but otherwise unchanged.
func FormatUploadDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
