// Package ytdlp wraps the yt-dlp command line tool. It looks up video
// metadata, fetches published or automatic subtitles and downloads audio
// tracks for transcription.
package ytdlp
