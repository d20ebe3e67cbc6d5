package videourl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
)

const (
	youtubeHost  = "www.youtube.com"
	bilibiliHost = "www.bilibili.com"
)

// trackingParams are dropped from every URL regardless of host. Keys with
// the utm_ or share_ prefix are dropped as well.
var trackingParams = map[string]bool{
	"spm_id_from": true,
	"from_spmid":  true,
	"vd_source":   true,
	"fbclid":      true,
	"gclid":       true,
	"si":          true,
	"feature":     true,
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return trackingParams[key] || strings.HasPrefix(key, "utm_") || strings.HasPrefix(key, "share_")
}

// Normalize rewrites a video URL into its canonical form: https scheme,
// lowercase desktop host, no fragment, no trailing slash and only the query
// parameters that identify the video. Two inputs pointing at the same video
// normalize to the same string.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty URL", domain.ErrNoURLFound)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoURLFound, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", domain.ErrNoURLFound, raw)
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	path := strings.TrimRight(u.EscapedPath(), "/")
	query := u.Query()

	switch host {
	case "bilibili.com", "m.bilibili.com", bilibiliHost:
		host = bilibiliHost
		query = keepOnly(query, "p")
	case "youtube.com", "m.youtube.com", youtubeHost:
		host = youtubeHost
		if id, ok := strings.CutPrefix(path, "/shorts/"); ok && id != "" {
			path = "/watch"
			query = url.Values{"v": {id}}
		}
		query = keepOnly(query, "v")
	case "youtu.be", "www.youtu.be":
		id := strings.Trim(path, "/")
		if i := strings.Index(id, "/"); i >= 0 {
			id = id[:i]
		}
		if id != "" {
			host = youtubeHost
			path = "/watch"
			query = url.Values{"v": {id}}
		}
	}

	for key := range query {
		if isTrackingParam(key) {
			query.Del(key)
		}
	}

	out := url.URL{
		Scheme:   "https",
		Host:     host,
		RawQuery: query.Encode(),
	}
	if port != "" && port != "443" && port != "80" {
		out.Host = host + ":" + port
	}
	if path != "" {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrNoURLFound, err)
		}
		out.Path = unescaped
		out.RawPath = path
	}

	return out.String(), nil
}

// Canonicalize extracts the first URL from free text and normalizes it.
func Canonicalize(input string) (source, normalized string, err error) {
	source, err = ExtractFirst(input)
	if err != nil {
		return "", "", err
	}
	normalized, err = Normalize(source)
	if err != nil {
		return "", "", err
	}
	return source, normalized, nil
}

func keepOnly(q url.Values, keys ...string) url.Values {
	out := url.Values{}
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// InferTitle returns a short display title derived from a normalized URL,
// used for the placeholder record before metadata is available.
func InferTitle(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return "Untitled video"
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	switch {
	case strings.HasSuffix(host, "bilibili.com"):
		if len(parts) >= 2 && parts[0] == "video" && strings.HasPrefix(strings.ToUpper(parts[1]), "BV") {
			return "Bilibili " + parts[1]
		}
		return "Bilibili video"
	case strings.HasSuffix(host, "b23.tv"):
		if len(parts) > 0 {
			return "Bilibili short link " + parts[0]
		}
		return "Bilibili short link"
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return "YouTube " + v
		}
		return "YouTube video"
	}
	return "Untitled video"
}
