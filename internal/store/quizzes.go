package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"studyhall/internal/flashcards"
)

// QuizCompletedMessage rejects a second submission of a finished quiz.
const QuizCompletedMessage = "This quiz has already been completed. You cannot retake it."

// NewQuestion is a generated multiple-choice question.
type NewQuestion struct {
	Question      string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

// CreateQuiz stores a generated quiz for one of the owner's documents.
func (s *Store) CreateQuiz(ctx context.Context, owner, documentID, title string, difficulty flashcards.Difficulty, questions []NewQuestion) (flashcards.Quiz, error) {
	if len(questions) == 0 {
		return flashcards.Quiz{}, invalid("create quiz", "at least one question is required")
	}
	if _, err := s.GetDocument(ctx, owner, documentID); err != nil {
		return flashcards.Quiz{}, err
	}
	if difficulty == "" {
		difficulty = flashcards.DifficultyMedium
	}
	quizID, err := newID()
	if err != nil {
		return flashcards.Quiz{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quizzes (id, owner, document_id, title, difficulty, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			quizID, owner, documentID, strings.TrimSpace(title), difficulty, s.timestamp(),
		); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		for i, q := range questions {
			question := strings.TrimSpace(q.Question)
			correct := strings.TrimSpace(q.CorrectAnswer)
			options := trimOptions(q.Options)
			if question == "" || len(options) < 2 {
				return invalid("create quiz", fmt.Sprintf("question %d needs text and at least two options", i+1))
			}
			if !slices.Contains(options, correct) {
				return invalid("create quiz", fmt.Sprintf("question %d has no matching correct option", i+1))
			}
			encoded, err := json.Marshal(options)
			if err != nil {
				return fmt.Errorf("encode options: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quiz_questions (quiz_id, position, question, options, correct_answer, explanation)
                VALUES (?, ?, ?, ?, ?, ?)`,
				quizID, i, question, string(encoded), correct, strings.TrimSpace(q.Explanation),
			); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return flashcards.Quiz{}, err
	}
	return s.GetQuiz(ctx, owner, quizID)
}

// ListQuizzes returns the quizzes generated from one document, newest first.
func (s *Store) ListQuizzes(ctx context.Context, owner, documentID string) ([]flashcards.Quiz, error) {
	return s.queryQuizzes(ctx,
		`SELECT id, document_id, title, difficulty, score, completed_at, created_at FROM quizzes
        WHERE owner = ? AND document_id = ? ORDER BY created_at DESC, id`, owner, documentID)
}

// GetQuiz fetches one quiz with its questions and answers.
func (s *Store) GetQuiz(ctx context.Context, owner, quizID string) (flashcards.Quiz, error) {
	quizzes, err := s.queryQuizzes(ctx,
		`SELECT id, document_id, title, difficulty, score, completed_at, created_at FROM quizzes
        WHERE id = ? AND owner = ?`, quizID, owner)
	if err != nil {
		return flashcards.Quiz{}, err
	}
	if len(quizzes) == 0 {
		return flashcards.Quiz{}, notFound("get quiz", "quiz")
	}
	return quizzes[0], nil
}

// SubmitQuiz grades answers, one per question, and marks the quiz completed.
// A quiz can be submitted once.
func (s *Store) SubmitQuiz(ctx context.Context, owner, quizID string, answers []flashcards.QuizAnswer) (flashcards.QuizResults, error) {
	quiz, err := s.GetQuiz(ctx, owner, quizID)
	if err != nil {
		return flashcards.QuizResults{}, err
	}
	if quiz.Completed() {
		return flashcards.QuizResults{}, invalid("submit quiz", QuizCompletedMessage)
	}
	selected := make([]string, len(quiz.Questions))
	answered := make([]bool, len(quiz.Questions))
	for _, answer := range answers {
		idx := answer.QuestionIndex
		if idx < 0 || idx >= len(quiz.Questions) {
			return flashcards.QuizResults{}, invalid("submit quiz", fmt.Sprintf("question index %d is out of range", idx))
		}
		choice := strings.TrimSpace(answer.SelectedAnswer)
		if !slices.Contains(quiz.Questions[idx].Options, choice) {
			return flashcards.QuizResults{}, invalid("submit quiz", fmt.Sprintf("answer for question %d is not one of its options", idx+1))
		}
		selected[idx] = choice
		answered[idx] = true
	}
	if slices.Contains(answered, false) {
		return flashcards.QuizResults{}, invalid("submit quiz", "every question must be answered")
	}

	correct := 0
	for i, question := range quiz.Questions {
		if selected[i] == question.CorrectAnswer {
			correct++
		}
	}
	score := flashcards.ScorePercent(correct, len(quiz.Questions))
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE quizzes SET score = ?, completed_at = ? WHERE id = ? AND owner = ? AND completed_at IS NULL`,
			score, s.timestamp(), quizID, owner)
		if err != nil {
			return fmt.Errorf("complete quiz: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("complete quiz: rows affected: %w", err)
		} else if n == 0 {
			return invalid("submit quiz", QuizCompletedMessage)
		}
		for i, choice := range selected {
			if _, err := tx.ExecContext(ctx,
				`UPDATE quiz_questions SET selected_answer = ? WHERE quiz_id = ? AND position = ?`,
				choice, quizID, i); err != nil {
				return fmt.Errorf("record answer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return flashcards.QuizResults{}, err
	}
	return s.QuizResults(ctx, owner, quizID)
}

// QuizResults grades a completed quiz question by question.
func (s *Store) QuizResults(ctx context.Context, owner, quizID string) (flashcards.QuizResults, error) {
	quiz, err := s.GetQuiz(ctx, owner, quizID)
	if err != nil {
		return flashcards.QuizResults{}, err
	}
	if !quiz.Completed() {
		return flashcards.QuizResults{}, invalid("quiz results", "quiz has not been completed")
	}
	selected, err := s.selectedAnswers(ctx, quizID)
	if err != nil {
		return flashcards.QuizResults{}, err
	}
	results := make([]flashcards.QuestionResult, 0, len(quiz.Questions))
	for i, question := range quiz.Questions {
		results = append(results, flashcards.QuestionResult{
			QuestionIndex:  i,
			Question:       question.Question,
			Options:        question.Options,
			CorrectAnswer:  question.CorrectAnswer,
			SelectedAnswer: selected[i],
			IsCorrect:      selected[i] == question.CorrectAnswer,
			Explanation:    question.Explanation,
		})
	}
	return flashcards.QuizResults{Quiz: quiz, Results: results}, nil
}

// DeleteQuiz removes a quiz and its questions.
func (s *Store) DeleteQuiz(ctx context.Context, owner, quizID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ? AND owner = ?`, quizID, owner)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return requireAffected(res, "delete quiz", "quiz")
}

func (s *Store) queryQuizzes(ctx context.Context, query string, args ...any) ([]flashcards.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	quizzes := make([]flashcards.Quiz, 0)
	for rows.Next() {
		var (
			quiz        flashcards.Quiz
			difficulty  string
			completedAt sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&quiz.ID, &quiz.DocumentID, &quiz.Title, &difficulty, &quiz.Score, &completedAt, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz.Difficulty = flashcards.Difficulty(difficulty)
		quiz.CompletedAt = parseNullableTime(completedAt)
		quiz.CreatedAt = parseTime(createdAt)
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	rows.Close()

	for i := range quizzes {
		questions, err := s.quizQuestions(ctx, quizzes[i].ID)
		if err != nil {
			return nil, err
		}
		quizzes[i].Questions = questions
		quizzes[i].TotalQuestions = len(questions)
	}
	return quizzes, nil
}

func (s *Store) quizQuestions(ctx context.Context, quizID string) ([]flashcards.QuizQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, options, correct_answer, explanation FROM quiz_questions
        WHERE quiz_id = ? ORDER BY position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := make([]flashcards.QuizQuestion, 0)
	for rows.Next() {
		var (
			question flashcards.QuizQuestion
			options  string
		)
		if err := rows.Scan(&question.Question, &options, &question.CorrectAnswer, &question.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &question.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (s *Store) selectedAnswers(ctx context.Context, quizID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT selected_answer FROM quiz_questions WHERE quiz_id = ? ORDER BY position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var selected []string
	for rows.Next() {
		var choice sql.NullString
		if err := rows.Scan(&choice); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		selected = append(selected, choice.String)
	}
	return selected, rows.Err()
}

func trimOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		if option = strings.TrimSpace(option); option != "" && !slices.Contains(out, option) {
			out = append(out, option)
		}
	}
	return out
}
