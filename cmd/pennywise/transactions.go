package main

import (
	"fmt"
	"time"

	"github.com/dhalloway/pennywise/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Manage transactions",
	}

	cmd.AddCommand(transactionsAddCmd())

	return cmd
}

func transactionsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction manually",
		Long: `Record a transaction by hand. Negative amounts are expenses, positive
amounts are income. The transaction is stored unclassified; run
"pennywise process" afterwards to categorize it.`,
		RunE: runTransactionsAdd,
	}

	cmd.Flags().Int64("user", 0, "Owning user id (required)")
	cmd.Flags().String("description", "", "Raw transaction description (required)")
	cmd.Flags().String("amount", "", "Signed decimal amount, e.g. -5.50 (required)")
	cmd.Flags().String("date", "", "Transaction date, YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runTransactionsAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	userID, _ := cmd.Flags().GetInt64("user")
	description, _ := cmd.Flags().GetString("description")
	amountStr, _ := cmd.Flags().GetString("amount")
	dateStr, _ := cmd.Flags().GetString("date")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}

	date := time.Now()
	if dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", dateStr, err)
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	txn := &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		Amount:      amount,
		Date:        date,
	}

	if err := store.SaveTransaction(ctx, txn); err != nil {
		return err
	}

	fmt.Printf("Added transaction %s\n", txn.ID)
	return nil
}
