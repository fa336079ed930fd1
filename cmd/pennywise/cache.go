package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the categorization caches",
	}

	cmd.AddCommand(cacheInvalidateCmd())

	return cmd
}

func cacheInvalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Delete a user's learned categorizations",
		Long: `Remove every categorization cache row for a user, including sticky
user_feedback entries. Transactions themselves are untouched; subsequent
processing relearns from scratch.`,
		RunE: runCacheInvalidate,
	}

	cmd.Flags().Int64("user", 0, "User id whose cache to clear (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runCacheInvalidate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetInt64("user")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	deleted, err := store.InvalidateUserCache(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d cached categorizations for user %d\n", deleted, userID)
	return nil
}
