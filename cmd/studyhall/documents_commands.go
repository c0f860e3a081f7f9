package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studyhall/internal/config"
	"studyhall/internal/documents"
	"studyhall/internal/flashcache"
	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
	"studyhall/internal/studyapi"
)

func newDocumentsCommand(ctx *commandContext) *cobra.Command {
	documentsCmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Upload and manage study documents",
	}

	documentsCmd.AddCommand(newDocumentsListCommand(ctx))
	documentsCmd.AddCommand(newDocumentsShowCommand(ctx))
	documentsCmd.AddCommand(newDocumentsUploadCommand(ctx))
	documentsCmd.AddCommand(newDocumentsRenameCommand(ctx))
	documentsCmd.AddCommand(newDocumentsDeleteCommand(ctx))
	documentsCmd.AddCommand(newDocumentsWatchCommand(ctx))

	return documentsCmd
}

func newDocumentsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			docs, err := client.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if docs == nil {
					docs = []flashcards.Document{}
				}
				return writeJSON(cmd, docs)
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents yet. Upload one with 'studyhall documents upload <file>'.")
				return nil
			}
			fmt.Fprintln(out, renderDocuments(docs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDocumentsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <documentId>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := client.GetDocument(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, doc)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", doc.ID)
			fmt.Fprintf(out, "Title:    %s\n", doc.Title)
			fmt.Fprintf(out, "File:     %s (%s)\n", doc.FileName, humanBytes(doc.FileSize))
			fmt.Fprintf(out, "Status:   %s\n", doc.Status)
			fmt.Fprintf(out, "Uploaded: %s\n", formatStamp(doc.CreatedAt))
			if summary := strings.TrimSpace(doc.Summary); summary != "" {
				fmt.Fprintf(out, "\nSummary:\n%s\n", summary)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDocumentsUploadCommand(ctx *commandContext) *cobra.Command {
	var title string
	var watch bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a text document for studying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer file.Close()

			name := filepath.Base(path)
			if strings.TrimSpace(title) == "" {
				title = strings.TrimSuffix(name, filepath.Ext(name))
			}
			doc, err := client.UploadDocument(cmd.Context(), title, name, file)
			if err != nil {
				return err
			}
			ctx.loggerValue().Info("document uploaded",
				logging.DocumentID(doc.ID),
				logging.EventType("document_uploaded"),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %q as %s (status: %s)\n", doc.Title, doc.ID, doc.Status)
			if !watch {
				return nil
			}
			push, _ := cmd.Flags().GetBool("push")
			return watchDocuments(cmd, ctx, client, push, cmd.Flags().Changed("push"))
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (default: file name)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Wait until processing finishes")
	cmd.Flags().Bool("push", false, "Follow status over the websocket stream while watching")
	return cmd
}

func newDocumentsRenameCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rename <documentId> <title>",
		Short: "Change a document's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := client.RenameDocument(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed document %s to %q\n", doc.ID, doc.Title)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDocumentsDeleteCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "delete <documentId>",
		Short: "Delete a document with its flashcards, quizzes, and chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID := args[0]
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			doc, err := client.GetDocument(cmd.Context(), documentID)
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("Delete %q with all its flashcards? This cannot be undone.", doc.Title)
			ok, err := confirmerFor(cmd, assumeYes).Confirm(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := client.DeleteDocument(cmd.Context(), documentID); err != nil {
				return err
			}
			if err := ctx.withCache(cmd.Context(), func(cache *flashcache.Cache) error {
				if cache == nil {
					return nil
				}
				return cache.Remove(cmd.Context(), documentID)
			}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Cached flashcards were not removed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Document deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func newDocumentsWatchCommand(ctx *commandContext) *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow document processing until nothing is processing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			return watchDocuments(cmd, ctx, client, push, cmd.Flags().Changed("push"))
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Use the websocket status stream with polling fallback (default documents.push)")
	return cmd
}

// watchDocuments prints every status change until nothing is processing.
// pushSet reports whether the caller chose push explicitly; otherwise the
// documents.push setting decides.
func watchDocuments(cmd *cobra.Command, ctx *commandContext, client *studyapi.Client, push, pushSet bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !pushSet {
		push = push || cfg.Documents.Push
	}

	logger := ctx.loggerValue()
	watcher := documents.NewWatcher(client, cfg.PollInterval(), cfg.Documents.MaxPolls, logger)
	run := watcher.Run
	if push {
		run = documents.NewPushWatcher(client, watcher, logger).Run
	}

	out := cmd.OutOrStdout()
	seen := make(map[string]flashcards.DocumentStatus)
	start := time.Now()
	docs, err := run(cmd.Context(), func(docs []flashcards.Document) {
		for _, doc := range docs {
			if seen[doc.ID] == doc.Status {
				continue
			}
			seen[doc.ID] = doc.Status
			fmt.Fprintf(out, "%s  %-10s %s\n", time.Since(start).Truncate(time.Second), doc.Status, doc.Title)
		}
	})
	if errors.Is(err, documents.ErrMaxPolls) {
		return fmt.Errorf("%w; run 'studyhall documents watch' again later", err)
	}
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		fmt.Fprintln(out, renderDocuments(docs))
	}
	return nil
}
