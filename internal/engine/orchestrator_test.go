package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/storage"
	"github.com/dhalloway/pennywise/internal/testutil"
)

func newTestOrchestrator(t *testing.T, store *storage.SQLiteStorage, mock *MockLLMClient) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(context.Background(), store, mock)
	require.NoError(t, err)
	o.ingestion.retryOpts = fastRetryOpts
	o.classifier.retryOpts = fastRetryOpts
	return o
}

func seedTransaction(t *testing.T, store *storage.SQLiteStorage, id, description string, amount string) {
	t.Helper()
	require.NoError(t, store.SaveTransaction(context.Background(), &model.Transaction{
		ID:          id,
		UserID:      1,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Date:        time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
	}))
}

func TestProcessTransactionRulePath(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	o := newTestOrchestrator(t, store, mock)
	ctx := context.Background()

	seedTransaction(t, store, "txn-1", "STARBUCKS STORE #12345", "-7.25")

	result := o.ProcessTransaction(ctx, "txn-1")

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Starbucks", result.NormalizedMerchant)
	assert.Equal(t, categoryID(t, store, "Dining"), result.CategoryID)
	assert.Equal(t, model.DecisionRule, result.DecisionSources.Ingest)
	assert.Equal(t, model.DecisionRule, result.DecisionSources.Classify)
	assert.False(t, result.LLMUsed)
	assert.GreaterOrEqual(t, result.TimeMs, 0.0)
	assert.Empty(t, result.Error)
	assert.Empty(t, mock.NormalizeCalls())
	assert.Empty(t, mock.ClassifyCalls())

	// The decision is persisted on the transaction row
	txn, err := store.GetTransactionByID(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "Starbucks", txn.NormalizedMerchant)
	assert.Equal(t, categoryID(t, store, "Dining"), txn.CategoryID)
	assert.Equal(t, []string{"expense"}, txn.Tags)
}

func TestProcessTransactionLLMPath(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.NormalizeFn = func(raw string) (llm.NormalizationResponse, error) {
		return llm.NormalizationResponse{NormalizedMerchant: "Blue Bottle Coffee"}, nil
	}
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		return llm.ClassificationResponse{CategoryName: "Dining", Tags: []string{"coffee"}}, nil
	}
	o := newTestOrchestrator(t, store, mock)

	seedTransaction(t, store, "txn-2", "BLUE BOTTLE 041 OAK", "-6.75")

	result := o.ProcessTransaction(context.Background(), "txn-2")

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, "Blue Bottle Coffee", result.NormalizedMerchant)
	assert.Equal(t, model.DecisionLLM, result.DecisionSources.Ingest)
	assert.Equal(t, model.DecisionLLM, result.DecisionSources.Classify)
	assert.True(t, result.LLMUsed)

	// Reprocessing the same transaction is fully cache-served
	result = o.ProcessTransaction(context.Background(), "txn-2")
	require.True(t, result.Success)
	assert.Equal(t, model.DecisionCache, result.DecisionSources.Ingest)
	assert.Equal(t, model.DecisionCache, result.DecisionSources.Classify)
	assert.False(t, result.LLMUsed)
	assert.Len(t, mock.NormalizeCalls(), 1)
	assert.Len(t, mock.ClassifyCalls(), 1)
}

func TestProcessTransactionLLMUsedWhenOnlyOneStageUsesModel(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		return llm.ClassificationResponse{CategoryName: "Utilities"}, nil
	}
	o := newTestOrchestrator(t, store, mock)
	ctx := context.Background()

	// Ingestion is a cache hit; only classification reaches the model
	require.NoError(t, store.SetCachedNormalization(ctx, "CITY WATER DEPT 8812", "City Water Dept"))
	seedTransaction(t, store, "txn-3", "CITY WATER DEPT 8812", "-88.40")

	result := o.ProcessTransaction(ctx, "txn-3")

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, model.DecisionCache, result.DecisionSources.Ingest)
	assert.Equal(t, model.DecisionLLM, result.DecisionSources.Classify)
	assert.True(t, result.LLMUsed)
	assert.Empty(t, mock.NormalizeCalls())
}

func TestProcessTransactionMissing(t *testing.T) {
	store := testutil.SetupTestDB(t)
	o := newTestOrchestrator(t, store, NewMockLLMClient())

	result := o.ProcessTransaction(context.Background(), "no-such-txn")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "failed to load transaction")
	assert.Empty(t, result.NormalizedMerchant)
	assert.GreaterOrEqual(t, result.TimeMs, 0.0)
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	store := testutil.SetupTestDB(t)
	o := newTestOrchestrator(t, store, NewMockLLMClient())
	ctx := context.Background()

	seedTransaction(t, store, "txn-a", "NETFLIX.COM", "-15.99")
	seedTransaction(t, store, "txn-b", "UBER TRIP 4432", "-23.10")

	o.ProcessBatch(ctx, []string{"txn-a", "no-such-txn", "txn-b"})

	txnA, err := store.GetTransactionByID(ctx, "txn-a")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", txnA.NormalizedMerchant)
	assert.True(t, txnA.IsSubscription)

	txnB, err := store.GetTransactionByID(ctx, "txn-b")
	require.NoError(t, err)
	assert.Equal(t, "Uber", txnB.NormalizedMerchant)
	assert.Equal(t, categoryID(t, store, "Transportation"), txnB.CategoryID)
}

func TestProcessBatchRespectsCancellation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	o := newTestOrchestrator(t, store, NewMockLLMClient())

	seedTransaction(t, store, "txn-c", "STARBUCKS STORE #99", "-4.80")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o.ProcessBatch(ctx, []string{"txn-c"})

	txn, err := store.GetTransactionByID(context.Background(), "txn-c")
	require.NoError(t, err)
	assert.Empty(t, txn.NormalizedMerchant, "canceled batch must not process transactions")
}
