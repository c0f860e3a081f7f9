package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"studyhall/internal/flashcache"
)

var errCacheDisabled = errors.New("flashcard cache is disabled (set cache.enabled = true in config.toml)")

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the offline flashcard cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd.Context(), func(cache *flashcache.Cache) error {
				if cache == nil {
					return errCacheDisabled
				}
				entries, err := cache.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cache: %s\n", cache.Path())
				if len(entries) == 0 {
					fmt.Fprintln(out, "Cached documents: none")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					state := "current"
					if entry.Stale {
						state = fmt.Sprintf("stale (v%d)", entry.ShapeVersion)
					}
					rows = append(rows, []string{
						entry.DocumentID,
						strconv.Itoa(entry.SetCount),
						strconv.Itoa(entry.CardCount),
						humanBytes(int64(entry.Bytes)),
						formatStamp(entry.UpdatedAt),
						state,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					left("Document"),
					right("Sets"),
					right("Cards"),
					right("Size"),
					left("Updated"),
					left("State"),
				}, rows))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd.Context(), func(cache *flashcache.Cache) error {
				if cache == nil {
					return errCacheDisabled
				}
				removed, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				if removed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Cache already empty")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached documents\n", removed)
				return nil
			})
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <documentId>",
		Short: "Remove one document from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCache(cmd.Context(), func(cache *flashcache.Cache) error {
				if cache == nil {
					return errCacheDisabled
				}
				if err := cache.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed cached flashcards for %s\n", args[0])
				return nil
			})
		},
	}
}
