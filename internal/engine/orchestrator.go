package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/service"
)

// Orchestrator sequences one transaction through ingestion, classification,
// and persistence, producing a uniform result envelope. It holds one agent
// pair so batches amortize the category-map load.
type Orchestrator struct {
	storage    service.Storage
	ingestion  *IngestionAgent
	classifier *ClassificationAgent
}

// NewOrchestrator creates an orchestrator and its two agents. It fails when
// the classification agent cannot be built (category load failure or missing
// "Other" category).
func NewOrchestrator(ctx context.Context, storage service.Storage, client llm.Client) (*Orchestrator, error) {
	classifier, err := NewClassificationAgent(ctx, storage, storage, storage, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification agent: %w", err)
	}

	return &Orchestrator{
		storage:    storage,
		ingestion:  NewIngestionAgent(storage, client),
		classifier: classifier,
	}, nil
}

// ProcessTransaction runs the full pipeline for one transaction id. Every
// failure is converted to a structured envelope; callers never see a raw
// error. Persisted state is whatever the last successful write achieved:
// the single write-back happens only after both agents have decided, so a
// failed run leaves the transaction untouched.
func (o *Orchestrator) ProcessTransaction(ctx context.Context, transactionID string) model.ProcessResult {
	start := time.Now()

	txn, err := o.storage.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return o.failure(transactionID, start, fmt.Errorf("failed to load transaction: %w", err))
	}

	merchant, ingestSource := o.ingestion.NormalizeMerchant(ctx, txn.Description)

	decision := o.classifier.Categorize(ctx, txn.UserID, merchant, txn.Amount, txn.Date)

	if err := o.storage.SaveClassification(ctx, transactionID, merchant, decision.CategoryID, decision.IsSubscription, decision.Tags); err != nil {
		return o.failure(transactionID, start, fmt.Errorf("failed to persist classification: %w", err))
	}

	elapsed := float64(time.Since(start).Microseconds()) / 1000
	llmUsed := ingestSource == model.DecisionLLM || decision.Source == model.DecisionLLM

	slog.Info("processed transaction",
		"transaction_id", transactionID,
		"merchant", merchant,
		"category_id", decision.CategoryID,
		"ingest_source", ingestSource,
		"classify_source", decision.Source,
		"llm_used", llmUsed,
		"time_ms", elapsed)

	return model.ProcessResult{
		Success:            true,
		NormalizedMerchant: merchant,
		CategoryID:         decision.CategoryID,
		DecisionSources: model.DecisionSources{
			Ingest:   ingestSource,
			Classify: decision.Source,
		},
		LLMUsed: llmUsed,
		TimeMs:  elapsed,
	}
}

// ProcessBatch applies the pipeline to many transaction ids with the same
// agent pair, continuing past per-transaction failures.
func (o *Orchestrator) ProcessBatch(ctx context.Context, transactionIDs []string) {
	for _, id := range transactionIDs {
		if ctx.Err() != nil {
			slog.Warn("batch processing canceled", "remaining", len(transactionIDs))
			return
		}

		result := o.ProcessTransaction(ctx, id)
		if !result.Success {
			slog.Error("batch transaction failed",
				"transaction_id", id,
				"error", result.Error)
		}
	}
}

func (o *Orchestrator) failure(transactionID string, start time.Time, err error) model.ProcessResult {
	slog.Error("transaction processing failed",
		"transaction_id", transactionID,
		"error", err)

	return model.ProcessResult{
		Success: false,
		Error:   err.Error(),
		TimeMs:  float64(time.Since(start).Microseconds()) / 1000,
	}
}
