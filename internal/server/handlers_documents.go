package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/services"
	"studyhall/internal/store"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), subjectFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), subjectFrom(r.Context()), r.PathValue("documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req updateDocumentRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.store.RenameDocument(r.Context(), subjectFrom(r.Context()), r.PathValue("documentId"), req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDocument(r.Context(), subjectFrom(r.Context()), r.PathValue("documentId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Document deleted"})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, uploadTooLarge(limit))
			return
		}
		s.writeError(w, r, services.Wrap(services.ErrValidation, "upload", "parse", "expected a multipart form with a file field", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "upload", "file", "file is required", nil))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(content)) > limit {
		s.writeError(w, r, uploadTooLarge(limit))
		return
	}

	owner := subjectFrom(r.Context())
	fileName := filepath.Base(header.Filename)
	doc, err := s.store.CreateDocument(r.Context(), owner, store.NewDocument{
		Title:    strings.TrimSpace(r.FormValue("title")),
		FileName: fileName,
		Content:  content,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := services.WithDocumentID(r.Context(), doc.ID)
	logging.WithContext(ctx, s.logger).Info("document uploaded",
		logging.String("file_name", fileName),
		logging.Int64("bytes", doc.FileSize),
		logging.EventType("document_uploaded"),
	)
	s.hub.Publish(owner, flashcards.StatusEvent{DocumentID: doc.ID, Status: doc.Status})
	if s.processor != nil {
		s.processor.Enqueue(doc.ID)
	}
	s.writeData(w, http.StatusCreated, doc)
}

func (s *Server) handleDocumentEvents(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, subjectFrom(r.Context()))
}

func uploadTooLarge(limit int64) error {
	return services.Wrap(services.ErrValidation, "upload", "size", fmt.Sprintf("file exceeds %d MiB", limit>>20), nil)
}
