// Package redact scrubs credentials and other sensitive fragments from
// strings before they are logged, stored on a task, or returned to a client.
// Error text from the LLM provider and from yt-dlp regularly echoes request
// URLs, and those URLs can carry API keys.
package redact

import (
	"regexp"
	"sync"
)

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

var (
	// Database connection strings with embedded user info.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database|connection)://[^@\s]+@`)

	// Google API keys, as used for Gemini.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{30,}`)

	// key=..., api_key: ..., token=... and friends, including URL query params.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|x-goog-api-key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	bearerRegex   = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/=]{8,}`)
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Cookie files handed to yt-dlp live under the user's home directory.
	homePathRegex = regexp.MustCompile(`(?:/home|/Users|/root)(/[\w.@-]+)+`)

	stackTraceRegex = regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`)

	patterns = []*regexp.Regexp{
		dbConnRegex, googleKeyRegex, bearerRegex, apiKeyRegex, passwordRegex,
		jwtTokenRegex, homePathRegex, stackTraceRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:     RedactedCredentialPlaceholder,
		googleKeyRegex:  RedactedKeyPlaceholder,
		bearerRegex:     RedactedCredentialPlaceholder,
		apiKeyRegex:     RedactedKeyPlaceholder,
		passwordRegex:   RedactedCredentialPlaceholder,
		jwtTokenRegex:   "[REDACTED_JWT]",
		homePathRegex:   RedactedPathPlaceholder,
		stackTraceRegex: "[STACK_TRACE_REDACTED]",
	}

	mu sync.RWMutex
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	mu.RLock()
	defer mu.RUnlock()

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
