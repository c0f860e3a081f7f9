package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studyhall/internal/flashcards"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary <documentId>",
		Short: "Generate a summary of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			summary, err := client.GenerateSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(summary.Summary))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newChatCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	chatCmd := &cobra.Command{
		Use:   "chat <documentId> <question>",
		Short: "Ask a question about a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			question := strings.Join(args[1:], " ")
			answer, err := client.Chat(cmd.Context(), args[0], question)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, answer)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(answer.Answer))
			return nil
		},
	}

	chatCmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	chatCmd.AddCommand(newChatHistoryCommand(ctx))
	return chatCmd
}

func newChatHistoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <documentId>",
		Short: "Show the chat transcript of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			messages, err := client.ChatHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				if messages == nil {
					messages = []flashcards.ChatMessage{}
				}
				return writeJSON(cmd, messages)
			}
			out := cmd.OutOrStdout()
			if len(messages) == 0 {
				fmt.Fprintln(out, "No chat history yet.")
				return nil
			}
			for _, msg := range messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", formatStamp(msg.CreatedAt), msg.Role, strings.TrimSpace(msg.Content))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "explain <documentId> <concept>",
		Short: "Explain a concept using a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			explanation, err := client.ExplainConcept(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, explanation)
			}
			out := cmd.OutOrStdout()
			for _, line := range renderSectionHeader(explanation.Concept, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, strings.TrimSpace(explanation.Explanation))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
