// Package daemon coordinates the long-running studyhalld process.
//
// It wires configuration, the SQLite store, the HTTP server, and the document
// processor into a single lifecycle with flock-based locking to prevent
// multiple instances sharing one data directory. Uploaded documents are
// processed in the background and their status changes are pushed to
// connected clients.
//
// Keep orchestration logic here: request handling lives in internal/server and
// persistence in internal/store while the daemon focuses on startup, shutdown,
// and background work.
package daemon
