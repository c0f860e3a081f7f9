package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studyhall/internal/flashcache"
	"studyhall/internal/flashcards"
	"studyhall/internal/review"
	"studyhall/internal/studyapi"
)

const (
	minGenerateCount = 1
	maxGenerateCount = 50
)

func newFlashcardsCommand(ctx *commandContext) *cobra.Command {
	flashcardsCmd := &cobra.Command{
		Use:     "flashcards",
		Aliases: []string{"cards"},
		Short:   "List, generate, and update flashcard sets",
	}

	flashcardsCmd.AddCommand(newFlashcardsListCommand(ctx))
	flashcardsCmd.AddCommand(newFlashcardsAllCommand(ctx))
	flashcardsCmd.AddCommand(newFlashcardsGenerateCommand(ctx))
	flashcardsCmd.AddCommand(newFlashcardsStarCommand(ctx))
	flashcardsCmd.AddCommand(newFlashcardsReviewCommand(ctx))
	flashcardsCmd.AddCommand(newFlashcardsDeleteCommand(ctx))

	return flashcardsCmd
}

func newFlashcardsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON, offline, showCards bool

	cmd := &cobra.Command{
		Use:   "list <documentId>",
		Short: "List a document's flashcard sets",
		Long: "List a document's flashcard sets. Cached sets are shown when the backend " +
			"cannot be reached; --offline reads only the cache.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID := args[0]
			if offline {
				return ctx.withCache(cmd.Context(), func(cache *flashcache.Cache) error {
					if cache == nil {
						return errors.New("flashcard cache is disabled (set cache.enabled = true)")
					}
					sets, ok, err := cache.Read(cmd.Context(), documentID)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no cached flashcards for document %s", documentID)
					}
					return printSets(cmd, documentID, sets, asJSON, showCards)
				})
			}

			return ctx.withController(cmd.Context(), documentID, func(ctrl *review.Controller, _ *studyapi.Client) error {
				painted := ctrl.LoadCached(cmd.Context())
				if err := ctrl.Refresh(cmd.Context()); err != nil {
					if !painted {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Showing cached flashcards; refresh failed: %s\n", studyapi.Message(err))
				}
				return printSets(cmd, documentID, ctrl.Snapshot().Sets, asJSON, showCards)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Read only the local cache")
	cmd.Flags().BoolVar(&showCards, "cards", false, "List every card of each set")
	return cmd
}

func printSets(cmd *cobra.Command, documentID string, sets []flashcards.Set, asJSON, showCards bool) error {
	if asJSON {
		if sets == nil {
			sets = []flashcards.Set{}
		}
		return writeJSON(cmd, sets)
	}
	out := cmd.OutOrStdout()
	if len(sets) == 0 {
		fmt.Fprintf(out, "No flashcard sets yet. Generate one with 'studyhall flashcards generate %s'.\n", documentID)
		return nil
	}
	fmt.Fprintln(out, renderSets(sets, false))
	if showCards {
		for _, set := range sets {
			printCards(out, set)
		}
	}
	return nil
}

func printCards(out io.Writer, set flashcards.Set) {
	fmt.Fprintf(out, "\n%s (%s)\n", set.DisplayTitle(), set.ID)
	if len(set.Cards) == 0 {
		fmt.Fprintln(out, "  This set has no cards.")
		return
	}
	fmt.Fprintln(out, renderCards(set))
}

func newFlashcardsAllCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "all",
		Short: "List flashcard sets across every document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			sets, err := client.ListAllFlashcards(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if sets == nil {
					sets = []flashcards.Set{}
				}
				return writeJSON(cmd, sets)
			}
			out := cmd.OutOrStdout()
			if len(sets) == 0 {
				fmt.Fprintln(out, "No flashcard sets yet.")
				return nil
			}
			fmt.Fprintln(out, renderSets(sets, true))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newFlashcardsGenerateCommand(ctx *commandContext) *cobra.Command {
	var count int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate <documentId>",
		Short: "Generate a new flashcard set from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if count == 0 {
				count = cfg.Review.GenerateCount
			}
			if count < minGenerateCount || count > maxGenerateCount {
				return fmt.Errorf("--count must be between %d and %d", minGenerateCount, maxGenerateCount)
			}

			documentID := args[0]
			return ctx.withController(cmd.Context(), documentID, func(ctrl *review.Controller, client *studyapi.Client) error {
				set, err := client.GenerateFlashcards(cmd.Context(), documentID, count)
				if err != nil {
					return err
				}
				if err := ctrl.Refresh(cmd.Context()); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Generated set was not cached: %s\n", studyapi.Message(err))
				}
				if asJSON {
					return writeJSON(cmd, set)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Generated %q with %d cards\n", set.DisplayTitle(), len(set.Cards))
				printCards(out, set)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of cards to generate (default review.generate_count)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newFlashcardsStarCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "star <documentId> <cardId>",
		Short: "Toggle the star on a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, cardID := args[0], args[1]
			return ctx.withController(cmd.Context(), documentID, func(ctrl *review.Controller, _ *studyapi.Client) error {
				if err := ctrl.Refresh(cmd.Context()); err != nil {
					return err
				}
				pending, err := ctrl.ToggleStar(cardID)
				if err != nil {
					return cardError(err, documentID, cardID)
				}
				if err := pending.Wait(); err != nil {
					return err
				}
				_, card, _ := findCard(ctrl.Snapshot().Sets, cardID)
				verb := "Unstarred"
				if card.Starred {
					verb = "Starred"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s card %s\n", verb, cardID)
				return nil
			})
		},
	}
}

func newFlashcardsReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review <documentId> <cardId>",
		Short: "Record a review of a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, cardID := args[0], args[1]
			return ctx.withController(cmd.Context(), documentID, func(ctrl *review.Controller, _ *studyapi.Client) error {
				if err := ctrl.Refresh(cmd.Context()); err != nil {
					return err
				}
				pending, err := ctrl.Review(cardID)
				if err != nil {
					return cardError(err, documentID, cardID)
				}
				if err := pending.Wait(); err != nil {
					return err
				}
				set, card, _ := findCard(ctrl.Snapshot().Sets, cardID)
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded review of card %s (reviewed %d times, set %d%% reviewed)\n",
					cardID, card.ReviewCount, set.Progress())
				return nil
			})
		},
	}
}

func newFlashcardsDeleteCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "delete <documentId> <setId>",
		Short: "Delete a flashcard set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, setID := args[0], args[1]
			return ctx.withController(cmd.Context(), documentID, func(ctrl *review.Controller, _ *studyapi.Client) error {
				if err := ctrl.Refresh(cmd.Context()); err != nil {
					return err
				}
				err := ctrl.DeleteSet(cmd.Context(), setID, confirmerFor(cmd, assumeYes))
				switch {
				case errors.Is(err, review.ErrDeclined):
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				case errors.Is(err, review.ErrSetNotFound):
					return fmt.Errorf("flashcard set %s not found in document %s", setID, documentID)
				case err != nil:
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Flashcard set deleted")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func cardError(err error, documentID, cardID string) error {
	switch {
	case errors.Is(err, review.ErrCardNotFound):
		return fmt.Errorf("card %s not found in document %s", cardID, documentID)
	case errors.Is(err, review.ErrCardBusy):
		return fmt.Errorf("card %s has a pending change; try again", cardID)
	default:
		return err
	}
}

func findCard(sets []flashcards.Set, cardID string) (flashcards.Set, flashcards.Card, bool) {
	for _, set := range sets {
		if idx := set.CardIndex(cardID); idx >= 0 {
			return set, set.Cards[idx], true
		}
	}
	return flashcards.Set{}, flashcards.Card{}, false
}
