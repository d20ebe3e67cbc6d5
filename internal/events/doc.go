// Package events carries task lifecycle notifications from the task
// pipeline to the components that react to them, such as the project
// recorder that persists placeholder and final records.
//
// Emitting is synchronous: handlers run on the emitter's goroutine in
// registration order, so a handler observes the events of one task in the
// order they happened.
package events
