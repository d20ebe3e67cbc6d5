// Package task runs video processing jobs in the background.
//
// Submissions go through Admission, which deduplicates by normalized URL and
// places new tasks in the Registry and the TaskQueue. A single Runner
// goroutine drains the queue and drives each task through the Pipeline
// stages one at a time, so at most one task is ever being processed.
package task
