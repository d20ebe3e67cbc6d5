package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/vidscribe/internal/domain"
	"github.com/phrazzld/vidscribe/internal/store"
)

// Sentinel errors returned by the services. The API layer maps these to
// HTTP status codes; anything else is wrapped in a ServiceError.
var (
	// ErrEmptyTagName indicates a blank tag name in a tag operation.
	ErrEmptyTagName = errors.New("tag name cannot be empty")

	// ErrTagExists indicates the tag is already in the tag list.
	ErrTagExists = errors.New("tag already exists")

	// ErrTagNotFound indicates the tag is not in the tag list.
	ErrTagNotFound = errors.New("tag not found")

	// ErrNoTags indicates classification was requested with an empty tag list.
	ErrNoTags = errors.New("no tags configured")
)

// ServiceError wraps unexpected failures from a service with context.
type ServiceError struct {
	// Service is the service that failed (e.g. "video", "chat")
	Service string
	// Operation is the operation that failed (e.g. "list_projects")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
// It returns known sentinel errors directly without wrapping.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrProjectNotFound), errors.Is(err, domain.ErrProjectNotFound):
		return domain.ErrProjectNotFound
	case errors.Is(err, store.ErrTagNotFound), errors.Is(err, ErrTagNotFound):
		return ErrTagNotFound
	case errors.Is(err, store.ErrTagExists), errors.Is(err, ErrTagExists):
		return ErrTagExists
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrNoURLFound),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, ErrEmptyTagName),
		errors.Is(err, ErrNoTags):
		return err
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func nilDependency(service, name string) error {
	return &ServiceError{
		Service:   service,
		Operation: "create_service",
		Message:   name + " cannot be nil",
	}
}
