package studyapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"studyhall/internal/services"
)

var (
	ErrTransport    = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("request rejected")
)

// APIError is a non-success response from the backend.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (http %d)", e.Op, e.Message, e.StatusCode)
}

// Unwrap classifies the response so callers can use errors.Is with the
// package markers.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRejected
	}
}

// Wrap tags err with marker and the client operation that failed.
func Wrap(marker error, op, message string, err error) error {
	return services.Wrap(marker, "api", op, message, err)
}

// Message returns the text a user should see for err: the server's own message
// when it sent one, otherwise a short description of the failure class.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrTransport):
		return "could not reach the study backend"
	case errors.Is(err, ErrUnauthorized):
		return "not authorized; check api.token"
	case errors.Is(err, ErrNotFound):
		return "not found"
	default:
		return err.Error()
	}
}
