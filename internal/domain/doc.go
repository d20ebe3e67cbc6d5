// Package domain contains the core entities of the service: the video
// processing Task with its state machine, the persisted Project record, and
// the transcript and metadata value objects that flow between pipeline stages.
// It has no dependencies on infrastructure or delivery mechanisms.
package domain
