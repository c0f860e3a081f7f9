package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"

	"studyhall/internal/review"
)

// PromptConfirmer asks for confirmation with an interactive huh prompt.
// Aborting the prompt counts as declining.
func PromptConfirmer(affirmative string) review.Confirmer {
	if affirmative == "" {
		affirmative = "Yes"
	}
	return review.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		var ok bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&ok),
		))
		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, err
		}
		return ok, nil
	})
}
