package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/phrazzld/vidscribe/internal/redact"
)

// ciSSLMode is appended to CI database URLs that carry no options; CI
// service containers do not serve TLS.
const ciSSLMode = "sslmode=disable"

// TestDatabaseURL returns the Postgres URL for integration tests, preferring
// VIDSCRIBE_TEST_DB_URL over DATABASE_URL. It returns an empty string when
// neither is set.
func TestDatabaseURL(logger *slog.Logger) string {
	raw := EnvWithFallbacks([]string{EnvTestDBURL, EnvDatabaseURL}, "", logger)
	if raw == "" {
		return ""
	}
	if !IsCI() {
		return raw
	}

	standardized, err := standardizeURL(raw)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to standardize test database URL",
				"error", redact.Error(err))
		}
		return raw
	}
	return standardized
}

func standardizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return raw, nil
	}
	if u.RawQuery == "" {
		u.RawQuery = ciSSLMode
	}
	return u.String(), nil
}
