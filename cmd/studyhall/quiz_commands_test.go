package main

import (
	"strings"
	"testing"

	"studyhall/internal/flashcards"
)

func TestCLIQuizLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := uploadReadyDocument(t, env, "Cells", "Cells divide by mitosis.\n")

	quiz := decodeJSON[flashcards.Quiz](t, mustRunCLI(t, env.configPath, "quiz", "generate", doc.ID, "-n", "2", "--difficulty", "Hard", "--json"))
	if len(quiz.Questions) != 2 || quiz.Difficulty != flashcards.DifficultyHard {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if quiz.Questions[0].CorrectAnswer != "" {
		t.Fatal("an open quiz must not reveal answers")
	}

	out := mustRunCLI(t, env.configPath, "quiz", "list", doc.ID)
	requireContains(t, out, quiz.ID)
	requireContains(t, out, "open")

	out, stderr, err := runCLI(t, env.configPath, "1\nb\n", "quiz", "take", quiz.ID)
	if err != nil {
		t.Fatalf("quiz take: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, out, "a) right 1")
	requireContains(t, out, "50% (1/2 correct)")
	requireContains(t, out, "Because 2.")

	out = mustRunCLI(t, env.configPath, "quiz", "take", quiz.ID, "--answers", "1,1")
	requireContains(t, out, "Notice")
	requireContains(t, out, "This quiz has already been completed. You cannot retake it.")

	out = mustRunCLI(t, env.configPath, "quiz", "take", quiz.ID)
	requireContains(t, out, "already been completed")
	requireContains(t, out, "studyhall quiz results "+quiz.ID)

	results := decodeJSON[flashcards.QuizResults](t, mustRunCLI(t, env.configPath, "quiz", "results", quiz.ID, "--json"))
	if results.Quiz.Score != 50 || results.Correct() != 1 || results.Results[1].SelectedAnswer != "wrong 2" {
		t.Fatalf("unexpected results: %+v", results)
	}

	out = mustRunCLI(t, env.configPath, "dashboard")
	requireContains(t, out, "1/1 completed, average 50%")

	out, _, err = runCLI(t, env.configPath, "n\n", "quiz", "delete", quiz.ID)
	if err != nil {
		t.Fatalf("quiz delete: %v", err)
	}
	requireContains(t, out, "Cancelled")
	out, _, err = runCLI(t, env.configPath, "y\n", "quiz", "delete", quiz.ID)
	if err != nil {
		t.Fatalf("quiz delete: %v", err)
	}
	requireContains(t, out, "Quiz deleted")
	out = mustRunCLI(t, env.configPath, "quiz", "list", doc.ID)
	requireContains(t, out, "No quizzes yet")
}

func TestCLIQuizTakeRejectsBadAnswers(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := uploadReadyDocument(t, env, "Atoms", "Atoms bond.\n")
	quiz := decodeJSON[flashcards.Quiz](t, mustRunCLI(t, env.configPath, "quiz", "generate", doc.ID, "-n", "2", "--json"))

	_, _, err := runCLI(t, env.configPath, "", "quiz", "take", quiz.ID, "--answers", "1")
	if err == nil || !strings.Contains(err.Error(), "has 1 entries but the quiz has 2 questions") {
		t.Fatalf("expected answer count error, got %v", err)
	}
	_, _, err = runCLI(t, env.configPath, "7\n", "quiz", "take", quiz.ID)
	if err == nil || !strings.Contains(err.Error(), "choose an option between 1 and 2") {
		t.Fatalf("expected option range error, got %v", err)
	}
	_, _, err = runCLI(t, env.configPath, "1\n", "quiz", "take", quiz.ID)
	if err == nil || !strings.Contains(err.Error(), "question 2 was not answered") {
		t.Fatalf("expected unanswered error, got %v", err)
	}
	_, _, err = runCLI(t, env.configPath, "", "quiz", "generate", doc.ID, "--difficulty", "brutal")
	if err == nil || !strings.Contains(err.Error(), "--difficulty") {
		t.Fatalf("expected difficulty error, got %v", err)
	}

	// Nothing was submitted, so the quiz is still open.
	out := mustRunCLI(t, env.configPath, "quiz", "take", quiz.ID, "--answers", "right 1, B")
	requireContains(t, out, "50% (1/2 correct)")
}

func TestMatchChoice(t *testing.T) {
	question := flashcards.QuizQuestion{Question: "What divides?", Options: []string{"Cells", "Rocks", "Atoms"}}
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "2", want: "Rocks"},
		{input: " c ", want: "Atoms"},
		{input: "A", want: "Cells"},
		{input: "rocks", want: "Rocks"},
		{input: "4", wantErr: true},
		{input: "z", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := matchChoice(question, tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("matchChoice(%q) expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("matchChoice(%q) = %q, %v; want %q", tc.input, got, err, tc.want)
		}
	}
}

func TestCLIExplainAndRename(t *testing.T) {
	env := setupCLITestEnv(t)
	doc := uploadReadyDocument(t, env, "Genetics", "Genes carry traits.\n")

	out := mustRunCLI(t, env.configPath, "explain", doc.ID, "dominant", "alleles")
	requireContains(t, out, "explanation of dominant alleles")

	explanation := decodeJSON[flashcards.Explanation](t, mustRunCLI(t, env.configPath, "explain", doc.ID, "genes", "--json"))
	if explanation.Concept != "genes" || explanation.Explanation != "explanation of genes" {
		t.Fatalf("unexpected explanation: %+v", explanation)
	}

	out = mustRunCLI(t, env.configPath, "documents", "rename", doc.ID, "Intro", "Genetics")
	requireContains(t, out, `Renamed document `+doc.ID+` to "Intro Genetics"`)
	renamed := decodeJSON[flashcards.Document](t, mustRunCLI(t, env.configPath, "documents", "show", doc.ID, "--json"))
	if renamed.Title != "Intro Genetics" {
		t.Fatalf("expected renamed title, got %q", renamed.Title)
	}
}
