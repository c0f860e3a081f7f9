// Package studyapi is the HTTP client for the study backend's REST surface.
//
// Every call sends the configured bearer token, unwraps the {data: ...}
// response envelope, and converts failures into errors tagged with one of the
// package markers: ErrTransport when the backend could not be reached,
// ErrUnauthorized, ErrNotFound, or ErrRejected when it answered with an error
// payload. Server-reported messages are preserved on *APIError so callers can
// show them verbatim.
package studyapi
