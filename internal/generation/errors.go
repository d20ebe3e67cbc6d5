package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the model call fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse is returned when the model reply is empty or unusable
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrTagNotInList is returned when the model picks a tag that is not offered
	ErrTagNotInList = errors.New("classified tag is not in the tag list")
)
