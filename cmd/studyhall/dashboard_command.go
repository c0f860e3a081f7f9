package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show study progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			dashboard, err := client.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, dashboard)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			o := dashboard.Overview
			for _, line := range renderSectionHeader("Progress", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Documents", statusInfo, fmt.Sprint(o.TotalDocuments), colorize))
			fmt.Fprintln(out, renderStatusLine("Flashcard sets", statusInfo, fmt.Sprint(o.TotalFlashcardSets), colorize))
			fmt.Fprintln(out, renderStatusLine("Flashcards", statusInfo, fmt.Sprint(o.TotalFlashcards), colorize))
			fmt.Fprintln(out, renderStatusLine("Reviewed", reviewedKind(o.ReviewedFlashcards, o.TotalFlashcards),
				fmt.Sprintf("%s %d (%d%%)", renderProgressBar(percent(o.ReviewedFlashcards, o.TotalFlashcards)),
					o.ReviewedFlashcards, percent(o.ReviewedFlashcards, o.TotalFlashcards)), colorize))
			fmt.Fprintln(out, renderStatusLine("Starred", statusInfo, fmt.Sprint(o.StarredFlashcards), colorize))
			if o.TotalQuizzes > 0 {
				fmt.Fprintln(out, renderStatusLine("Quizzes", statusInfo,
					fmt.Sprintf("%d/%d completed, average %d%%", o.CompletedQuizzes, o.TotalQuizzes, o.AverageScore), colorize))
			}

			if len(dashboard.RecentDocuments) > 0 {
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Recent documents", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderDocuments(dashboard.RecentDocuments))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total/2) / total
}

func reviewedKind(reviewed, total int) statusKind {
	switch {
	case total == 0:
		return statusInfo
	case reviewed == total:
		return statusOK
	default:
		return statusWarn
	}
}
