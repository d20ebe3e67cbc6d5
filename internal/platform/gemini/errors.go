package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/vidscribe/internal/credential"
	"github.com/phrazzld/vidscribe/internal/generation"
	"google.golang.org/genai"
)

// quotaMarkers are substrings of provider messages that signal an exhausted
// quota even when no structured status is available.
var quotaMarkers = []string{"resource_exhausted", "resource exhausted", "quota", "rate limit", "429"}

// classifyError maps a genai error onto the application's error kinds.
// Quota errors are marked with credential.ErrQuotaExceeded so the pool
// switches keys; everything else is a generation failure.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}
	if isQuotaError(err) {
		return fmt.Errorf("%w: %w", credential.ErrQuotaExceeded, err)
	}
	if code, ok := apiErrorCode(err); ok && code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}
	return fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err)
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED") {
			return true
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		if apiErrPtr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErrPtr.Status, "RESOURCE_EXHAUSTED") {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
