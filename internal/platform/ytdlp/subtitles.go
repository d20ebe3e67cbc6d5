package ytdlp

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// Subtitle formats in order of preference. json is Bilibili's native
// subtitle document.
var formatPriority = []string{"json3", "json", "srv1", "vtt"}

// subtitleTrack is the rendition picked for download.
type subtitleTrack struct {
	Language string
	Source   domain.SubtitleSource
	Format   subtitleFormat
}

// chooseTrack picks published subtitles before automatic captions, trying
// languages in order and formats by formatPriority.
func chooseTrack(info *videoInfo, langs []string) (subtitleTrack, bool) {
	candidates := []struct {
		tracks map[string][]subtitleFormat
		source domain.SubtitleSource
	}{
		{info.Subtitles, domain.SubtitleSourceOfficial},
		{info.AutomaticCaptions, domain.SubtitleSourceAutoGenerated},
	}

	for _, c := range candidates {
		for _, lang := range langs {
			formats, ok := c.tracks[lang]
			if !ok || len(formats) == 0 {
				continue
			}
			if f, ok := pickFormat(formats); ok {
				return subtitleTrack{Language: lang, Source: c.source, Format: f}, true
			}
		}
	}
	return subtitleTrack{}, false
}

func pickFormat(formats []subtitleFormat) (subtitleFormat, bool) {
	for _, ext := range formatPriority {
		for _, f := range formats {
			if f.Ext == ext && f.URL != "" {
				return f, true
			}
		}
	}
	return subtitleFormat{}, false
}

// parseSubtitles decodes a subtitle document in the given format.
func parseSubtitles(ext string, raw []byte) ([]domain.Segment, error) {
	switch ext {
	case "json3":
		return parseJSON3(raw)
	case "json":
		return parseBilibiliJSON(raw)
	case "srv1":
		return parseSrv1(raw)
	case "vtt":
		return ParseVTT(string(raw)), nil
	default:
		return nil, fmt.Errorf("unsupported subtitle format %q", ext)
	}
}

type json3Document struct {
	Events []struct {
		StartMs    float64 `json:"tStartMs"`
		DurationMs float64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(raw []byte) ([]domain.Segment, error) {
	var doc json3Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode json3 subtitles: %w", err)
	}

	segments := make([]domain.Segment, 0, len(doc.Events))
	for _, ev := range doc.Events {
		var sb strings.Builder
		for _, s := range ev.Segs {
			sb.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Start: ev.StartMs / 1000,
			End:   (ev.StartMs + ev.DurationMs) / 1000,
			Text:  text,
		})
	}
	return segments, nil
}

type bilibiliDocument struct {
	Body []struct {
		From    float64 `json:"from"`
		To      float64 `json:"to"`
		Content string  `json:"content"`
	} `json:"body"`
}

func parseBilibiliJSON(raw []byte) ([]domain.Segment, error) {
	var doc bilibiliDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode bilibili subtitles: %w", err)
	}

	segments := make([]domain.Segment, 0, len(doc.Body))
	for _, line := range doc.Body {
		if text := strings.TrimSpace(line.Content); text != "" {
			segments = append(segments, domain.Segment{Start: line.From, End: line.To, Text: text})
		}
	}
	return segments, nil
}

type srv1Document struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",chardata"`
	} `xml:"text"`
}

func parseSrv1(raw []byte) ([]domain.Segment, error) {
	var doc srv1Document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode srv1 subtitles: %w", err)
	}

	segments := make([]domain.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(t.Body)
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(t.Start, 64)
		dur, _ := strconv.ParseFloat(t.Dur, 64)
		segments = append(segments, domain.Segment{Start: start, End: start + dur, Text: text})
	}
	return segments, nil
}

var (
	vttTiming = regexp.MustCompile(
		`(?:(\d{2,}):)?(\d{2}):(\d{2})[.,](\d{3})\s*-->\s*(?:(\d{2,}):)?(\d{2}):(\d{2})[.,](\d{3})`)
	vttTag = regexp.MustCompile(`<[^>]+>`)
)

// ParseVTT extracts timed cues from WebVTT or SRT text. Inline tags are
// stripped and multi-line cues are joined with a space.
func ParseVTT(raw string) []domain.Segment {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var segments []domain.Segment
	for i := 0; i < len(lines); i++ {
		m := vttTiming.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		start := vttSeconds(m[1], m[2], m[3], m[4])
		end := vttSeconds(m[5], m[6], m[7], m[8])

		var text []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			text = append(text, strings.TrimSpace(lines[i]))
		}
		cue := strings.TrimSpace(vttTag.ReplaceAllString(strings.Join(text, " "), ""))
		if cue != "" {
			segments = append(segments, domain.Segment{Start: start, End: end, Text: cue})
		}
	}
	return segments
}

func vttSeconds(h, m, s, ms string) float64 {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000
}
