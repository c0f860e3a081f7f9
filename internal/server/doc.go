// Package server implements the development study backend's HTTP API.
//
// Routes mirror the endpoints the studyhall client consumes: flashcard sets
// and card mutations, documents with multipart upload, AI generation, chat,
// and the progress dashboard. Every /api route requires an HS256 bearer JWT
// whose subject scopes the caller's rows in the store. Responses use the
// {success, data} envelope; failures carry {success:false, error, message}.
//
// The package also hosts the websocket hub that pushes document status
// changes, per-subject rate limiting of generation routes, CORS, request
// correlation ids, and Prometheus metrics on /metrics.
package server
