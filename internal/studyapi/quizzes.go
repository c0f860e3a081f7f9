package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"studyhall/internal/flashcards"
)

// quizList decodes a bare array of quizzes or one wrapped under "quizzes".
type quizList []flashcards.Quiz

func (l *quizList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Quizzes []flashcards.Quiz `json:"quizzes"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return err
		}
		*l = wrapped.Quizzes
		return nil
	}
	var quizzes []flashcards.Quiz
	if err := json.Unmarshal(trimmed, &quizzes); err != nil {
		return err
	}
	*l = quizzes
	return nil
}

// GenerateQuiz asks the backend for a multiple-choice quiz of count questions.
func (c *Client) GenerateQuiz(ctx context.Context, documentID string, count int, difficulty flashcards.Difficulty) (flashcards.Quiz, error) {
	var quiz flashcards.Quiz
	payload := map[string]any{"documentId": documentID}
	if count > 0 {
		payload["count"] = count
	}
	if difficulty != "" {
		payload["difficulty"] = string(difficulty)
	}
	err := c.doJSON(ctx, "generate quiz", http.MethodPost, c.endpoint("api", "ai", "generate-quiz"), payload, &quiz)
	return quiz, err
}

// ListQuizzes returns the quizzes generated from the document.
func (c *Client) ListQuizzes(ctx context.Context, documentID string) ([]flashcards.Quiz, error) {
	var quizzes quizList
	if err := c.doJSON(ctx, "list quizzes", http.MethodGet, c.endpoint("api", "quizzes", documentID), nil, &quizzes); err != nil {
		return nil, err
	}
	return []flashcards.Quiz(quizzes), nil
}

// GetQuiz returns one quiz. Open quizzes come back without answers.
func (c *Client) GetQuiz(ctx context.Context, quizID string) (flashcards.Quiz, error) {
	var quiz flashcards.Quiz
	err := c.doJSON(ctx, "get quiz", http.MethodGet, c.endpoint("api", "quizzes", "quiz", quizID), nil, &quiz)
	return quiz, err
}

// SubmitQuiz sends one answer per question and returns the graded quiz. A
// quiz that was already completed is rejected by the backend.
func (c *Client) SubmitQuiz(ctx context.Context, quizID string, answers []flashcards.QuizAnswer) (flashcards.QuizResults, error) {
	var results flashcards.QuizResults
	if len(answers) == 0 {
		return results, Wrap(ErrRejected, "submit quiz", "answers required", nil)
	}
	payload := map[string]any{"answers": answers}
	err := c.doJSON(ctx, "submit quiz", http.MethodPost, c.endpoint("api", "quizzes", quizID, "submit"), payload, &results)
	return results, err
}

// QuizResults returns the graded answers of a completed quiz.
func (c *Client) QuizResults(ctx context.Context, quizID string) (flashcards.QuizResults, error) {
	var results flashcards.QuizResults
	err := c.doJSON(ctx, "quiz results", http.MethodGet, c.endpoint("api", "quizzes", quizID, "results"), nil, &results)
	return results, err
}

// DeleteQuiz removes a quiz.
func (c *Client) DeleteQuiz(ctx context.Context, quizID string) error {
	return c.doJSON(ctx, "delete quiz", http.MethodDelete, c.endpoint("api", "quizzes", quizID), nil, nil)
}

// ExplainConcept asks the backend to explain concept using the document.
func (c *Client) ExplainConcept(ctx context.Context, documentID, concept string) (flashcards.Explanation, error) {
	var explanation flashcards.Explanation
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return explanation, Wrap(ErrRejected, "explain concept", "concept required", nil)
	}
	payload := map[string]string{"documentId": documentID, "concept": concept}
	err := c.doJSON(ctx, "explain concept", http.MethodPost, c.endpoint("api", "ai", "explain-concept"), payload, &explanation)
	if explanation.Concept == "" {
		explanation.Concept = concept
	}
	return explanation, err
}
