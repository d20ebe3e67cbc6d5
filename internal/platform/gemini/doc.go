// Package gemini implements generation.Model on Google's Gemini API.
//
// Every call is routed through a credential.Pool: the request runs with the
// active API key, and a quota or rate-limit reply moves the pool on to the
// next key before the request is retried. One genai client is kept per key.
package gemini
