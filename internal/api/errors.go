package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/vidscribe/internal/credential"
	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/service"
	"github.com/phrazzld/vidscribe/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, domain.ErrNoURLFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptyTagName),
		errors.Is(err, service.ErrNoTags),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, service.ErrTagNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrTagExists):
		return http.StatusConflict

	case errors.Is(err, credential.ErrAllCredentialsExhausted):
		return http.StatusServiceUnavailable

	case errors.Is(err, domain.ErrChatFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that carries no
// internal detail.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, domain.ErrNoURLFound):
		return "No valid video link found, paste a full URL"
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Message cannot be empty"
	case errors.Is(err, service.ErrEmptyTagName):
		return "Tag name cannot be empty"
	case errors.Is(err, service.ErrNoTags):
		return "No tags configured"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, domain.ErrProjectNotFound):
		return "Project not found"
	case errors.Is(err, service.ErrTagNotFound):
		return "Tag not found"
	case errors.Is(err, service.ErrTagExists):
		return "Tag already exists"
	case errors.Is(err, credential.ErrAllCredentialsExhausted):
		return "All model API keys are over quota, try again later"
	case errors.Is(err, domain.ErrChatFailed):
		return "AI reply failed"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message that
// names the failing field without echoing its value.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
