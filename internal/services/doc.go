// Package services defines shared utilities consumed by the API client, the
// development backend, and its generation worker.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, document IDs, and
//     card IDs for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses on the backend.
//
// Use these helpers when wiring new handlers so operational behaviour (error
// handling, observability) stays uniform across the client and backend.
package services
