package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"studyhall/internal/logging"
	"studyhall/internal/services"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

// writeError maps err to a status and a message safe to show the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	message := publicMessage(err, status)
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	} else {
		logger.Debug("request rejected",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.String("reason", message),
		)
	}
	s.writeJSON(w, status, envelope{Success: false, Message: message, Error: message})
}

func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError && !errors.Is(err, services.ErrConfiguration) {
		return "internal server error"
	}
	msg := services.Message(err)
	if idx := strings.LastIndex(msg, ": "); idx >= 0 && idx+2 < len(msg) {
		msg = msg[idx+2:]
	}
	if msg == "" {
		return strings.ToLower(http.StatusText(status))
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return services.Wrap(services.ErrValidation, "request", "decode", "malformed JSON body", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return services.Wrap(services.ErrValidation, "request", "validate", validationMessage(err), nil)
	}
	return nil
}
