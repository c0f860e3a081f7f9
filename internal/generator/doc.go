// Package generator produces flashcards, summaries, and chat answers from
// document text using an OpenAI-compatible chat completion endpoint
// (OpenRouter by default).
//
// Requests retry with exponential backoff on rate limits, server errors,
// timeouts, and empty completions. Model output is decoded tolerantly: code
// fences and prose around the JSON payload are stripped before parsing.
package generator
