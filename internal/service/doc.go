// Package service contains the application use cases behind the HTTP API.
// It coordinates the task core (admission, registry) with the persisted
// project records and tag list in internal/store and the model-backed
// operations in internal/generation.
//
// Key components:
//
//   - VideoService: submission, status, the merged project list and
//     project/tag management.
//   - ChatService: follow-up conversations about a processed video, with
//     history persisted on the project record.
//   - ProjectRecorder: an event handler that writes the placeholder record
//     when a task is queued and the final record when it finishes.
//   - TagClassifier: picks a tag for a video title from the current tag list.
//
// Services receive their dependencies through constructor injection and
// return sentinel errors for expected conditions, which the API layer maps
// to HTTP status codes.
package service
