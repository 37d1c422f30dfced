package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pevans/technews/config"
	"github.com/pevans/technews/recent"
	"github.com/pevans/technews/storage"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Inspect or edit a browser's recently opened articles",
}

var recentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent items",
	Args:  cobra.NoArgs,
	RunE:  runRecentList,
}

var recentAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Record an article as opened",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecentAdd,
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recent items",
	Args:  cobra.NoArgs,
	RunE:  runRecentClear,
}

func init() {
	recentCmd.PersistentFlags().String("browser", "cli", "Browser id whose list is used")
	recentCmd.PersistentFlags().String("format", "table", "Output format: table, json")

	recentAddCmd.Flags().String("title", "", "Article title")
	recentAddCmd.Flags().String("source", "", "Source name")
	recentAddCmd.Flags().String("image", "", "Image URL")
	recentAddCmd.Flags().String("published", "", "Publication time (RFC 3339)")

	recentCmd.AddCommand(recentListCmd, recentAddCmd, recentClearCmd)
}

// errMemoryStorage is returned by the recent commands when storage is
// in-process, since nothing would outlive the command.
var errMemoryStorage = errors.New("recent commands need persistent storage: set storage.type " +
	"(or TECHNEWS_STORAGE_TYPE) to sqlite, postgres, redis or mongo")

// withRecentStore opens the configured storage, scopes it to --browser and
// runs fn with the resulting store.
func withRecentStore(cmd *cobra.Command, fn func(context.Context, *recent.Store) error) error {
	if cfg.Storage.Type == config.StorageMemory {
		return errMemoryStorage
	}

	ctx := cmd.Context()
	browser, _ := cmd.Flags().GetString("browser")

	st, closeStore, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStore()

	store := recent.NewStore(storage.NewScoped(st, browser), recent.WithLogger(logger))
	return fn(ctx, store)
}

func printRecent(cmd *cobra.Command, list recent.List) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return printJSON(cmd.OutOrStdout(), list)
	case "table":
		printRecentTable(cmd.OutOrStdout(), list)
		return nil
	}
	return fmt.Errorf("unknown format: %s", format)
}

func runRecentList(cmd *cobra.Command, args []string) error {
	return withRecentStore(cmd, func(ctx context.Context, store *recent.Store) error {
		return printRecent(cmd, store.Read(ctx))
	})
}

func runRecentAdd(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	source, _ := cmd.Flags().GetString("source")
	image, _ := cmd.Flags().GetString("image")
	published, _ := cmd.Flags().GetString("published")

	item := recent.Item{Title: title, URL: args[0], Source: source, PublishedAt: published}
	if image != "" {
		item.URLToImage = &image
	}

	return withRecentStore(cmd, func(ctx context.Context, store *recent.Store) error {
		if !store.Write(ctx, item) {
			return errors.New("recent item was not saved (see log for details)")
		}
		return printRecent(cmd, store.Read(ctx))
	})
}

func runRecentClear(cmd *cobra.Command, args []string) error {
	return withRecentStore(cmd, func(ctx context.Context, store *recent.Store) error {
		if !store.Clear(ctx) {
			return errors.New("failed to clear recent items")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Recent items cleared.")
		return nil
	})
}
