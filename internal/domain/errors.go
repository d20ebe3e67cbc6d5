package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNoURLFound is returned when submitted input contains no usable URL.
	ErrNoURLFound = errors.New("no video URL found in input")

	// ErrTaskNotFound is returned when a task id is not known to the registry.
	ErrTaskNotFound = errors.New("task not found")

	// ErrProjectNotFound is returned when neither the registry nor the
	// project store knows the requested id.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidTransition is returned when a task state change would move
	// the task backwards or sideways in the pipeline.
	ErrInvalidTransition = errors.New("invalid task state transition")

	// ErrTerminalState is returned when a finished task is modified.
	ErrTerminalState = errors.New("task is in a terminal state")

	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// Pipeline stage errors. They are recorded on the task and never escape the
// worker loop.
var (
	ErrMetadataUnavailable  = errors.New("video metadata unavailable")
	ErrSubtitlesUnavailable = errors.New("subtitles unavailable")
	ErrTranscriptionFailed  = errors.New("transcription failed")
	ErrSummarizationFailed  = errors.New("summarization failed")
	ErrClassificationFailed = errors.New("classification failed")
	ErrChatFailed           = errors.New("chat failed")
)
