package videourl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/phrazzld/vidscribe/internal/domain"
)

// urlStop lists the characters that end a URL match, including the
// full-width punctuation share text places right after a link.
const urlStop = `\s<>"'\x{3000}，。！？、；：【】「」『』（）《》“”‘’`

var (
	schemeURLRegex = regexp.MustCompile(`(?i)https?://[^` + urlStop + `]+`)
	knownHostRegex = regexp.MustCompile(`(?i)(?:b23\.tv|(?:www\.|m\.)?bilibili\.com|(?:www\.|m\.)?youtube\.com|youtu\.be)/[^` + urlStop + `]*`)
)

// trailingPunctuation is stripped from the end of a matched URL; people
// paste links at the end of sentences.
const trailingPunctuation = ".,;!?)]}，。！？"

// ExtractFirst returns the first URL in text, scanning left to right.
// Links with an explicit scheme win; otherwise a bare link to a known video
// host is accepted, and finally a single dotted token is tried as-is.
// It returns domain.ErrNoURLFound when nothing usable is present.
func ExtractFirst(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: input is empty", domain.ErrNoURLFound)
	}

	for _, candidate := range schemeURLRegex.FindAllString(text, -1) {
		candidate = strings.TrimRight(candidate, trailingPunctuation)
		if isHostURL(candidate) {
			return candidate, nil
		}
	}

	if m := knownHostRegex.FindString(text); m != "" {
		return "https://" + strings.TrimRight(m, trailingPunctuation), nil
	}

	if !strings.ContainsAny(text, " \t\n") && strings.Contains(text, ".") {
		if isHostURL("https://" + text) {
			return text, nil
		}
	}

	return "", domain.ErrNoURLFound
}

func isHostURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".")
}
