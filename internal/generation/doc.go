// Package generation is the boundary between the application and the
// language model. Service turns transcripts, chat history and tag lists
// into prompts built from editable templates and hands them to a Model,
// which the Gemini adapter implements.
package generation
