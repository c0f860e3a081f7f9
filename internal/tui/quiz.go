package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"studyhall/internal/flashcards"
)

// PromptQuiz asks every question of quiz with an interactive select and
// returns one answer per question. Aborting returns huh.ErrUserAborted.
func PromptQuiz(ctx context.Context, quiz flashcards.Quiz) ([]flashcards.QuizAnswer, error) {
	selected := make([]string, len(quiz.Questions))
	groups := make([]*huh.Group, 0, len(quiz.Questions))
	for i, question := range quiz.Questions {
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("%d/%d  %s", i+1, len(quiz.Questions), question.Question)).
				Options(huh.NewOptions(question.Options...)...).
				Value(&selected[i]),
		))
	}
	if err := huh.NewForm(groups...).RunWithContext(ctx); err != nil {
		return nil, err
	}
	answers := make([]flashcards.QuizAnswer, len(selected))
	for i, choice := range selected {
		answers[i] = flashcards.QuizAnswer{QuestionIndex: i, SelectedAnswer: choice}
	}
	return answers, nil
}
