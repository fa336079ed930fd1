package main

import (
	"fmt"

	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/spf13/cobra"
)

func correctCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correct <transaction-id>",
		Short: "Apply a user category correction to a transaction",
		Long: `Set a transaction's category explicitly and record the decision in the
user categorization cache with source user_feedback, so later automated
runs for the same merchant will not override it.`,
		Args: cobra.ExactArgs(1),
		RunE: runCorrect,
	}

	cmd.Flags().String("category", "", "Category name to assign (required)")
	cmd.Flags().Bool("subscription", false, "Mark the merchant as a subscription")
	cmd.Flags().StringSlice("tags", nil, "Tags to record with the correction")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runCorrect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	categoryName, _ := cmd.Flags().GetString("category")
	isSubscription, _ := cmd.Flags().GetBool("subscription")
	tags, _ := cmd.Flags().GetStringSlice("tags")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	txn, err := store.GetTransactionByID(ctx, args[0])
	if err != nil {
		return err
	}

	category, err := store.GetCategoryByName(ctx, categoryName)
	if err != nil {
		return err
	}
	if category == nil {
		return common.NewUserError(fmt.Sprintf("unknown category %q", categoryName), nil)
	}

	merchant := txn.NormalizedMerchant
	if merchant == "" {
		merchant = txn.Description
	}

	if err := store.SaveClassification(ctx, txn.ID, merchant, category.ID, isSubscription, tags); err != nil {
		return err
	}

	// The sticky half of the correction: user_feedback rows survive any
	// later agent_learning write for this merchant.
	if err := store.SetCachedCategorization(ctx, txn.UserID, merchant, category.ID, isSubscription, tags, model.SourceUserFeedback); err != nil {
		return err
	}

	fmt.Printf("Corrected %s to %q\n", txn.ID, category.Name)
	return nil
}
