package server

import (
	"net/http"

	"studyhall/internal/services"
)

func (s *Server) handleListAllSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.ListAllSets(r.Context(), subjectFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, sets)
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	owner := subjectFrom(r.Context())
	documentID := r.PathValue("documentId")
	if _, err := s.store.GetDocument(r.Context(), owner, documentID); err != nil {
		s.writeError(w, r, err)
		return
	}
	sets, err := s.store.ListSets(r.Context(), owner, documentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, sets)
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	index := -1
	if req.CardIndex != nil {
		index = *req.CardIndex
	}
	cardID := r.PathValue("cardId")
	ctx := services.WithCardID(r.Context(), cardID)
	set, err := s.store.ReviewCard(ctx, subjectFrom(ctx), cardID, index)
	if err != nil {
		s.writeError(w, r.WithContext(ctx), err)
		return
	}
	s.metrics.cardMutation("review")
	s.writeData(w, http.StatusOK, set)
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("cardId")
	ctx := services.WithCardID(r.Context(), cardID)
	set, err := s.store.ToggleStar(ctx, subjectFrom(ctx), cardID)
	if err != nil {
		s.writeError(w, r.WithContext(ctx), err)
		return
	}
	s.metrics.cardMutation("star")
	s.writeData(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSet(r.Context(), subjectFrom(r.Context()), r.PathValue("setId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Flashcard set deleted"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.store.Dashboard(r.Context(), subjectFrom(r.Context()), 5)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, dash)
}
