package main

import (
	"github.com/spf13/cobra"

	"studyhall/internal/review"
	"studyhall/internal/studyapi"
	"studyhall/internal/tui"
)

func newStudyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "study <documentId> [setId]",
		Short: "Review a document's flashcards interactively",
		Long: "Open an interactive review session. Cached sets appear immediately and are " +
			"refreshed from the backend. Revealing an answer records a review.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var setID string
			if len(args) > 1 {
				setID = args[1]
			}
			return ctx.withController(cmd.Context(), args[0], func(ctrl *review.Controller, _ *studyapi.Client) error {
				return tui.Run(cmd.Context(), ctrl, setID)
			})
		},
	}
}
