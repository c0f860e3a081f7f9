package server

import (
	"net/http"
	"strings"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/services"
	"studyhall/internal/store"
)

const defaultQuizCount = 5

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Count == 0 {
		req.Count = defaultQuizCount
	}
	difficulty := flashcards.Difficulty(strings.ToLower(req.Difficulty))
	if difficulty == "" {
		difficulty = flashcards.DifficultyMedium
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
	generated, err := s.gen.Quiz(ctx, doc.Title, text, req.Count, difficulty)
	s.metrics.generation("quiz", err)
	if err != nil {
		s.writeGenerationError(w, r, "quiz", err)
		return
	}
	questions := make([]store.NewQuestion, 0, len(generated))
	for _, q := range generated {
		questions = append(questions, store.NewQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	quiz, err := s.store.CreateQuiz(ctx, owner, doc.ID, flashcards.DefaultQuizTitle(doc.Title), difficulty, questions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logging.WithContext(ctx, s.logger).Info("quiz generated",
		logging.QuizID(quiz.ID),
		logging.Int("questions", quiz.TotalQuestions),
		logging.Duration("elapsed", time.Since(start)),
		logging.EventType("quiz_generated"),
	)
	s.writeData(w, http.StatusCreated, quiz.Redacted())
}

func (s *Server) handleExplainConcept(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
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
	explanation, err := s.gen.Explain(ctx, doc.Title, text, req.Concept)
	s.metrics.generation("explain", err)
	if err != nil {
		s.writeGenerationError(w, r, "explain", err)
		return
	}
	s.writeData(w, http.StatusOK, flashcards.Explanation{Concept: strings.TrimSpace(req.Concept), Explanation: explanation})
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	owner := subjectFrom(r.Context())
	documentID := r.PathValue("documentId")
	if _, err := s.store.GetDocument(r.Context(), owner, documentID); err != nil {
		s.writeError(w, r, err)
		return
	}
	quizzes, err := s.store.ListQuizzes(r.Context(), owner, documentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range quizzes {
		if !quizzes[i].Completed() {
			quizzes[i] = quizzes[i].Redacted()
		}
	}
	s.writeData(w, http.StatusOK, quizzes)
}

// handleQuizRead serves GET /api/quizzes/quiz/{quizId} and
// GET /api/quizzes/{quizId}/results, which share a shape the mux cannot
// tell apart.
func (s *Server) handleQuizRead(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "quiz":
		s.handleGetQuiz(w, r, second)
	case second == "results":
		s.handleQuizResults(w, r, first)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request, quizID string) {
	quiz, err := s.store.GetQuiz(r.Context(), subjectFrom(r.Context()), quizID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !quiz.Completed() {
		quiz = quiz.Redacted()
	}
	s.writeData(w, http.StatusOK, quiz)
}

func (s *Server) handleQuizResults(w http.ResponseWriter, r *http.Request, quizID string) {
	results, err := s.store.QuizResults(r.Context(), subjectFrom(r.Context()), quizID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, results)
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	quizID := r.PathValue("quizId")
	results, err := s.store.SubmitQuiz(r.Context(), subjectFrom(r.Context()), quizID, req.Answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("quiz submitted",
		logging.QuizID(quizID),
		logging.Int("score", results.Quiz.Score),
		logging.EventType("quiz_submitted"),
	)
	s.writeData(w, http.StatusOK, results)
}

func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteQuiz(r.Context(), subjectFrom(r.Context()), r.PathValue("quizId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Quiz deleted"})
}
