package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/generator"
	"studyhall/internal/logging"
	"studyhall/internal/services"
	"studyhall/internal/store"
)

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Count == 0 {
		req.Count = s.cfg.DefaultGenerateCount
	}
	ctx := services.WithDocumentID(r.Context(), req.DocumentID)
	r = r.WithContext(ctx)
	owner := subjectFrom(ctx)

	doc, text, err := s.readyDocument(ctx, owner, req.DocumentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.requireGenerator(); err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	generated, err := s.gen.Flashcards(ctx, doc.Title, text, req.Count)
	s.metrics.generation("flashcards", err)
	if err != nil {
		s.writeGenerationError(w, r, "flashcards", err)
		return
	}
	cards := make([]store.NewCard, 0, len(generated))
	for _, card := range generated {
		cards = append(cards, store.NewCard{Question: card.Question, Answer: card.Answer, Difficulty: card.Difficulty})
	}
	set, err := s.store.CreateSet(ctx, owner, doc.ID, flashcards.DefaultTitle(doc.Title), cards)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logging.WithContext(ctx, s.logger).Info("flashcards generated",
		logging.SetID(set.ID),
		logging.Int("cards", len(set.Cards)),
		logging.Duration("elapsed", time.Since(start)),
		logging.EventType("flashcards_generated"),
	)
	s.writeData(w, http.StatusCreated, set)
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := services.WithDocumentID(r.Context(), req.DocumentID)
	r = r.WithContext(ctx)
	owner := subjectFrom(ctx)

	doc, text, err := s.readyDocument(ctx, owner, req.DocumentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.requireGenerator(); err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.gen.Summarize(ctx, doc.Title, text)
	s.metrics.generation("summary", err)
	if err != nil {
		s.writeGenerationError(w, r, "summary", err)
		return
	}
	if err := s.store.SetSummary(ctx, owner, doc.ID, summary); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, flashcards.Summary{DocumentID: doc.ID, Summary: summary})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := services.WithDocumentID(r.Context(), req.DocumentID)
	r = r.WithContext(ctx)
	owner := subjectFrom(ctx)

	doc, text, err := s.readyDocument(ctx, owner, req.DocumentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.requireGenerator(); err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.store.ChatHistory(ctx, owner, doc.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	asked := time.Now().UTC()
	answer, err := s.gen.Answer(ctx, doc.Title, text, history, req.Question)
	s.metrics.generation("chat", err)
	if err != nil {
		s.writeGenerationError(w, r, "chat", err)
		return
	}
	err = s.store.AppendChat(ctx, owner, doc.ID,
		flashcards.ChatMessage{Role: "user", Content: req.Question, CreatedAt: asked},
		flashcards.ChatMessage{Role: "assistant", Content: answer, CreatedAt: time.Now().UTC()},
	)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, flashcards.ChatAnswer{Question: req.Question, Answer: answer})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.ChatHistory(r.Context(), subjectFrom(r.Context()), r.PathValue("documentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, history)
}

func (s *Server) readyDocument(ctx context.Context, owner, documentID string) (flashcards.Document, string, error) {
	doc, err := s.store.GetDocument(ctx, owner, documentID)
	if err != nil {
		return flashcards.Document{}, "", err
	}
	text, err := s.store.DocumentText(ctx, owner, documentID)
	if err != nil {
		return flashcards.Document{}, "", err
	}
	return doc, text, nil
}

func (s *Server) requireGenerator() error {
	if s.gen == nil || !s.gen.Enabled() {
		return services.Wrap(services.ErrConfiguration, "generate", "", "AI generation is not configured on this server", nil)
	}
	return nil
}

func (s *Server) writeGenerationError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	status := http.StatusBadGateway
	message := "AI generation failed; try again"
	switch {
	case errors.Is(err, generator.ErrNotConfigured):
		status = http.StatusServiceUnavailable
		message = "AI generation is not configured on this server"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "AI generation timed out; try again"
	}
	logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "generation failed", "generation_failed",
		logging.String("kind", kind),
		logging.Error(err),
		logging.Hint("check llm.api_key, llm.model, and provider status"),
		logging.Impact("client receives an error and may retry"),
	)
	s.writeJSON(w, status, envelope{Success: false, Message: message, Error: message})
}
