// Package whisper transcribes a video's audio track with the whisper
// command line tool.
package whisper
