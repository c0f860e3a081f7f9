// Package main hosts the studyhall CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into calls
// against the study backend: flashcard review and generation, document
// upload and status tracking, AI summaries and chat, and the progress
// dashboard. It centralizes configuration resolution, the API client, the
// offline flashcard cache, and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
