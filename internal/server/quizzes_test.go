package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/flashcards"
	"studyhall/internal/generator"
	"studyhall/internal/server"
	"studyhall/internal/store"
	"studyhall/internal/studyapi"
)

func quizGenerator() *fakeGenerator {
	return &fakeGenerator{enabled: true, questions: []generator.Question{
		{Question: "What divides?", Options: []string{"Cells", "Rocks"}, CorrectAnswer: "Cells", Explanation: "Mitosis."},
		{Question: "Powerhouse?", Options: []string{"Nucleus", "Mitochondria"}, CorrectAnswer: "Mitochondria"},
		{Question: "Unused?", Options: []string{"a", "b"}, CorrectAnswer: "a"},
	}}
}

func TestQuizLifecycle(t *testing.T) {
	h := newHarness(t, server.Config{}, quizGenerator())
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "cell_biology.txt")

	quiz, err := h.client.GenerateQuiz(ctx, doc.ID, 2, flashcards.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, "Cell Biology Quiz", quiz.Title)
	assert.Equal(t, flashcards.DifficultyHard, quiz.Difficulty)
	require.Len(t, quiz.Questions, 2)
	assert.Empty(t, quiz.Questions[0].CorrectAnswer, "open quiz must not leak answers")

	fetched, err := h.client.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Questions[1].CorrectAnswer)
	assert.False(t, fetched.Completed())

	_, err = h.client.QuizResults(ctx, quiz.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	answers := []flashcards.QuizAnswer{
		{QuestionIndex: 0, SelectedAnswer: "Cells"},
		{QuestionIndex: 1, SelectedAnswer: "Nucleus"},
	}
	results, err := h.client.SubmitQuiz(ctx, quiz.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 50, results.Quiz.Score)
	assert.Equal(t, 1, results.Correct())
	assert.Equal(t, "Mitosis.", results.Results[0].Explanation)
	assert.Equal(t, "Mitochondria", results.Results[1].CorrectAnswer)

	_, err = h.client.SubmitQuiz(ctx, quiz.ID, answers)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Equal(t, store.QuizCompletedMessage, studyapi.Message(err))

	quizzes, err := h.client.ListQuizzes(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.True(t, quizzes[0].Completed())
	assert.Equal(t, "Cells", quizzes[0].Questions[0].CorrectAnswer, "completed quizzes show answers")

	dash, err := h.client.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Overview.CompletedQuizzes)
	assert.Equal(t, 50, dash.Overview.AverageScore)

	_, err = h.clientFor(t, "bob").GetQuiz(ctx, quiz.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	require.NoError(t, h.client.DeleteQuiz(ctx, quiz.ID))
	quizzes, err = h.client.ListQuizzes(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestQuizRoutesRejectUnknownPaths(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	token, err := h.auth.Mint("alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, h.http.URL+"/api/quizzes/q1/answers", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitQuizValidatesBody(t *testing.T) {
	h := newHarness(t, server.Config{}, quizGenerator())
	doc := h.readyDocument(t, "alice", "biology.txt")
	quiz, err := h.client.GenerateQuiz(context.Background(), doc.ID, 1, "")
	require.NoError(t, err)

	token, err := h.auth.Mint("alice")
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, h.http.URL+"/api/quizzes/"+quiz.ID+"/submit", strings.NewReader(`{"answers":[]}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Answers must be at least 1", body.Message)
}

func TestExplainConceptAndRenameDocument(t *testing.T) {
	h := newHarness(t, server.Config{}, quizGenerator())
	ctx := context.Background()
	doc := h.readyDocument(t, "alice", "biology.txt")

	explanation, err := h.client.ExplainConcept(ctx, doc.ID, "mitosis")
	require.NoError(t, err)
	assert.Equal(t, "explanation of mitosis", explanation.Explanation)
	assert.Equal(t, "mitosis", explanation.Concept)

	renamed, err := h.client.RenameDocument(ctx, doc.ID, "Cell Biology")
	require.NoError(t, err)
	assert.Equal(t, "Cell Biology", renamed.Title)

	_, err = h.clientFor(t, "bob").RenameDocument(ctx, doc.ID, "Mine now")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestQuizGenerationUnavailableWithoutLLM(t *testing.T) {
	h := newHarness(t, server.Config{}, nil)
	doc := h.readyDocument(t, "alice", "biology.txt")

	_, err := h.client.GenerateQuiz(context.Background(), doc.ID, 3, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))

	_, err = h.client.ExplainConcept(context.Background(), doc.ID, "mitosis")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}
