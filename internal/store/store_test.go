package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "studyhall.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func readyDocument(t *testing.T, s *Store, owner string) flashcards.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := s.CreateDocument(ctx, owner, NewDocument{Title: "Biology", FileName: "bio.txt", Content: []byte("cells divide")})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := s.CompleteProcessing(ctx, doc.ID, flashcards.StatusReady, "cells divide"); err != nil {
		t.Fatalf("CompleteProcessing: %v", err)
	}
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc, err := s.CreateDocument(ctx, "alice", NewDocument{FileName: "notes.md", Content: []byte("# Notes")})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.Status != flashcards.StatusProcessing || doc.Title != "notes.md" || doc.FileSize != 7 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.ID) != 21 {
		t.Fatalf("expected nanoid, got %q", doc.ID)
	}

	pending, err := s.ProcessingDocuments(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one processing document, got %v %v", pending, err)
	}
	if _, err := s.DocumentText(ctx, "alice", doc.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected not-ready validation error, got %v", err)
	}

	if err := s.CompleteProcessing(ctx, doc.ID, flashcards.StatusReady, "Notes"); err != nil {
		t.Fatalf("CompleteProcessing: %v", err)
	}
	text, err := s.DocumentText(ctx, "alice", doc.ID)
	if err != nil || text != "Notes" {
		t.Fatalf("unexpected text %q: %v", text, err)
	}
	if err := s.CompleteProcessing(ctx, doc.ID, flashcards.StatusFailed, ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected finished document to reject a second result, got %v", err)
	}

	if _, err := s.GetDocument(ctx, "bob", doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected documents scoped to owner, got %v", err)
	}
	docs, err := s.ListDocuments(ctx, "alice")
	if err != nil || len(docs) != 1 || docs[0].Status != flashcards.StatusReady {
		t.Fatalf("unexpected list: %+v %v", docs, err)
	}

	if err := s.DeleteDocument(ctx, "alice", doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := s.DeleteDocument(ctx, "alice", doc.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateDocumentRejectsEmptyUpload(t *testing.T) {
	s := openTestStore(t)
	_, err := s.CreateDocument(context.Background(), "alice", NewDocument{Title: "x"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetMutations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	set, err := s.CreateSet(ctx, "alice", doc.ID, "Biology Flashcards", []NewCard{
		{Question: "What divides?", Answer: "Cells"},
		{Question: "Powerhouse?", Answer: "Mitochondria", Difficulty: flashcards.DifficultyEasy},
	})
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	if len(set.Cards) != 2 || set.Cards[0].Difficulty != flashcards.DifficultyMedium {
		t.Fatalf("unexpected set: %+v", set)
	}

	second := set.Cards[1].ID
	starred, err := s.ToggleStar(ctx, "alice", second)
	if err != nil {
		t.Fatalf("ToggleStar: %v", err)
	}
	if !starred.Cards[1].Starred || starred.Cards[0].Starred {
		t.Fatalf("expected only the second card starred: %+v", starred.Cards)
	}
	unstarred, err := s.ToggleStar(ctx, "alice", second)
	if err != nil || unstarred.Cards[1].Starred {
		t.Fatalf("expected star toggled back, got %+v %v", unstarred.Cards[1], err)
	}

	before := time.Now().Add(-time.Second)
	reviewed, err := s.ReviewCard(ctx, "alice", second, 1)
	if err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}
	card := reviewed.Cards[1]
	if card.ReviewCount != 1 || card.LastReviewed == nil || card.LastReviewed.Before(before) {
		t.Fatalf("unexpected reviewed card: %+v", card)
	}
	if _, err := s.ReviewCard(ctx, "alice", second, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected index mismatch rejected, got %v", err)
	}
	if _, err := s.ToggleStar(ctx, "bob", second); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected cards scoped to owner, got %v", err)
	}

	sets, err := s.ListSets(ctx, "alice", doc.ID)
	if err != nil || len(sets) != 1 {
		t.Fatalf("unexpected sets: %+v %v", sets, err)
	}
	if err := s.DeleteSet(ctx, "alice", set.ID); err != nil {
		t.Fatalf("DeleteSet: %v", err)
	}
	all, err := s.ListAllSets(ctx, "alice")
	if err != nil || len(all) != 0 {
		t.Fatalf("expected no sets after delete, got %+v %v", all, err)
	}
}

func TestDeleteSetCascadesWhileAnotherConnectionIsHeld(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	held, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	set, err := s.CreateSet(ctx, "alice", doc.ID, "Biology Flashcards", []NewCard{
		{Question: "What divides?", Answer: "Cells"},
	})
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	if err := s.DeleteSet(ctx, "alice", set.ID); err != nil {
		t.Fatalf("DeleteSet: %v", err)
	}
	var orphans int
	if err := held.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE set_id = ?`, set.ID).Scan(&orphans); err != nil {
		t.Fatalf("count cards: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected cards removed with their set, found %d", orphans)
	}
}

func TestCreateSetValidatesCards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	if _, err := s.CreateSet(ctx, "alice", doc.ID, "t", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty set, got %v", err)
	}
	_, err := s.CreateSet(ctx, "alice", doc.ID, "t", []NewCard{{Question: "q"}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank answer, got %v", err)
	}
	if sets, _ := s.ListSets(ctx, "alice", doc.ID); len(sets) != 0 {
		t.Fatal("failed create must not leave a partial set")
	}
}

func TestChatHistoryAndDashboard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	err := s.AppendChat(ctx, "alice", doc.ID,
		flashcards.ChatMessage{Role: "user", Content: "What divides?"},
		flashcards.ChatMessage{Role: "assistant", Content: "Cells."},
	)
	if err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	history, err := s.ChatHistory(ctx, "alice", doc.ID)
	if err != nil || len(history) != 2 || history[0].Role != "user" {
		t.Fatalf("unexpected history: %+v %v", history, err)
	}

	set, err := s.CreateSet(ctx, "alice", doc.ID, "", []NewCard{{Question: "a", Answer: "b"}, {Question: "c", Answer: "d"}})
	if err != nil {
		t.Fatalf("CreateSet: %v", err)
	}
	if _, err := s.ToggleStar(ctx, "alice", set.Cards[0].ID); err != nil {
		t.Fatalf("ToggleStar: %v", err)
	}
	if _, err := s.ReviewCard(ctx, "alice", set.Cards[1].ID, 1); err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}

	dash, err := s.Dashboard(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	want := flashcards.Overview{TotalDocuments: 1, TotalFlashcardSets: 1, TotalFlashcards: 2, ReviewedFlashcards: 1, StarredFlashcards: 1}
	if dash.Overview != want {
		t.Fatalf("unexpected overview: %+v", dash.Overview)
	}
	if len(dash.RecentDocuments) != 1 {
		t.Fatalf("unexpected recent documents: %+v", dash.RecentDocuments)
	}

	empty, err := s.Dashboard(ctx, "nobody", 5)
	if err != nil || empty.Overview != (flashcards.Overview{}) {
		t.Fatalf("expected empty overview, got %+v %v", empty.Overview, err)
	}
}

func sampleQuestions() []NewQuestion {
	return []NewQuestion{
		{Question: "What divides?", Options: []string{"Cells", "Rocks"}, CorrectAnswer: "Cells", Explanation: "Cells divide by mitosis."},
		{Question: "Powerhouse?", Options: []string{"Nucleus", "Mitochondria", "Mitochondria"}, CorrectAnswer: "Mitochondria"},
	}
}

func TestQuizLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	quiz, err := s.CreateQuiz(ctx, "alice", doc.ID, "Biology Quiz", "", sampleQuestions())
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if quiz.TotalQuestions != 2 || quiz.Difficulty != flashcards.DifficultyMedium || quiz.Completed() {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if len(quiz.Questions[1].Options) != 2 {
		t.Fatalf("expected duplicate options collapsed, got %v", quiz.Questions[1].Options)
	}
	if _, err := s.QuizResults(ctx, "alice", quiz.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected results refused before submission, got %v", err)
	}

	partial := []flashcards.QuizAnswer{{QuestionIndex: 0, SelectedAnswer: "Cells"}}
	if _, err := s.SubmitQuiz(ctx, "alice", quiz.ID, partial); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unanswered questions rejected, got %v", err)
	}
	bogus := []flashcards.QuizAnswer{{QuestionIndex: 0, SelectedAnswer: "Cells"}, {QuestionIndex: 1, SelectedAnswer: "Golgi"}}
	if _, err := s.SubmitQuiz(ctx, "alice", quiz.ID, bogus); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown option rejected, got %v", err)
	}

	answers := []flashcards.QuizAnswer{{QuestionIndex: 1, SelectedAnswer: "Nucleus"}, {QuestionIndex: 0, SelectedAnswer: "Cells"}}
	results, err := s.SubmitQuiz(ctx, "alice", quiz.ID, answers)
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if results.Quiz.Score != 50 || !results.Quiz.Completed() || results.Correct() != 1 {
		t.Fatalf("unexpected results: %+v", results.Quiz)
	}
	if !results.Results[0].IsCorrect || results.Results[1].IsCorrect || results.Results[1].SelectedAnswer != "Nucleus" {
		t.Fatalf("unexpected grading: %+v", results.Results)
	}
	if results.Results[0].Explanation != "Cells divide by mitosis." {
		t.Fatalf("expected explanation carried, got %+v", results.Results[0])
	}

	_, err = s.SubmitQuiz(ctx, "alice", quiz.ID, answers)
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), QuizCompletedMessage) {
		t.Fatalf("expected second submission refused, got %v", err)
	}
	again, err := s.QuizResults(ctx, "alice", quiz.ID)
	if err != nil || again.Quiz.Score != 50 {
		t.Fatalf("expected stored results, got %+v %v", again.Quiz, err)
	}

	dash, err := s.Dashboard(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.Overview.TotalQuizzes != 1 || dash.Overview.CompletedQuizzes != 1 || dash.Overview.AverageScore != 50 {
		t.Fatalf("unexpected quiz overview: %+v", dash.Overview)
	}

	if _, err := s.GetQuiz(ctx, "bob", quiz.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected quizzes scoped to owner, got %v", err)
	}
	if err := s.DeleteQuiz(ctx, "alice", quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if quizzes, err := s.ListQuizzes(ctx, "alice", doc.ID); err != nil || len(quizzes) != 0 {
		t.Fatalf("expected no quizzes after delete, got %+v %v", quizzes, err)
	}
}

func TestCreateQuizValidatesQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	bad := []NewQuestion{{Question: "What divides?", Options: []string{"Cells", "Rocks"}, CorrectAnswer: "Atoms"}}
	if _, err := s.CreateQuiz(ctx, "alice", doc.ID, "t", "", bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing correct option, got %v", err)
	}
	if quizzes, _ := s.ListQuizzes(ctx, "alice", doc.ID); len(quizzes) != 0 {
		t.Fatal("failed create must not leave a partial quiz")
	}
}

func TestDeleteDocumentRemovesQuizzes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	quiz, err := s.CreateQuiz(ctx, "alice", doc.ID, "Biology Quiz", flashcards.DifficultyHard, sampleQuestions())
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if err := s.DeleteDocument(ctx, "alice", doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	var questions int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_questions WHERE quiz_id = ?`, quiz.ID).Scan(&questions); err != nil || questions != 0 {
		t.Fatalf("expected questions removed with the document, count=%d err=%v", questions, err)
	}
}

func TestRenameDocument(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	doc := readyDocument(t, s, "alice")

	renamed, err := s.RenameDocument(ctx, "alice", doc.ID, "  Cell Biology ")
	if err != nil || renamed.Title != "Cell Biology" {
		t.Fatalf("unexpected rename: %+v %v", renamed, err)
	}
	if _, err := s.RenameDocument(ctx, "alice", doc.ID, " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected blank title rejected, got %v", err)
	}
	if _, err := s.RenameDocument(ctx, "bob", doc.ID, "Stolen"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected rename scoped to owner, got %v", err)
	}
}
