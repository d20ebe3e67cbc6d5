// Package videourl pulls a video link out of free-form user input and rewrites
// it into the canonical form used as the deduplication key for tasks.
package videourl
