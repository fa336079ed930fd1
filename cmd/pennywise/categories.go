package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// defaultCategories is seeded on first setup. "Other" is mandatory: it is the
// universal fallback target for every degraded classification.
var defaultCategories = []string{
	"Groceries",
	"Dining",
	"Transportation",
	"Subscriptions",
	"Shopping",
	"Entertainment",
	"Utilities",
	"Income",
	"Other",
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage spending categories",
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesSeedCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return err
			}

			for _, cat := range categories {
				fmt.Printf("%4d  %s\n", cat.ID, cat.Name)
			}
			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			cat, err := store.CreateCategory(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Category %q (id %d)\n", cat.Name, cat.ID)
			return nil
		},
	}
}

func categoriesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default category set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			for _, name := range defaultCategories {
				if _, err := store.CreateCategory(ctx, name); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", name, err)
				}
			}

			fmt.Printf("Seeded %d categories\n", len(defaultCategories))
			return nil
		},
	}
}
