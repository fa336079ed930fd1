package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhalloway/pennywise/internal/engine"
	"github.com/spf13/cobra"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <transaction-id>...",
		Short: "Run the categorization pipeline for one or more transactions",
		Long: `Normalize the merchant and classify each listed transaction, writing the
results back to storage. With a single id the result envelope is printed;
with several ids the batch is processed fire-and-forget, logging failures
and continuing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().Bool("json", false, "Print result envelopes as JSON")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	client, err := initLLMClient()
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	orchestrator, err := engine.NewOrchestrator(ctx, store, client)
	if err != nil {
		return err
	}

	if len(args) > 1 {
		orchestrator.ProcessBatch(ctx, args)
		return nil
	}

	result := orchestrator.ProcessTransaction(ctx, args[0])

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		return fmt.Errorf("processing failed: %s", result.Error)
	}

	fmt.Printf("%s -> category %d (ingest: %s, classify: %s, llm: %t, %.0fms)\n",
		result.NormalizedMerchant,
		result.CategoryID,
		result.DecisionSources.Ingest,
		result.DecisionSources.Classify,
		result.LLMUsed,
		result.TimeMs)
	return nil
}
