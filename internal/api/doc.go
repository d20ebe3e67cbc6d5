// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the JSON API used by the web client to
// the video, tag and chat services.
package api
