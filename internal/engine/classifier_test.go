package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/storage"
	"github.com/dhalloway/pennywise/internal/testutil"
)

func newTestClassifier(t *testing.T, store *storage.SQLiteStorage, mock *MockLLMClient) *ClassificationAgent {
	t.Helper()
	agent, err := NewClassificationAgent(context.Background(), store, store, store, mock)
	require.NoError(t, err)
	agent.retryOpts = fastRetryOpts
	return agent
}

func categoryID(t *testing.T, store *storage.SQLiteStorage, name string) int64 {
	t.Helper()
	cat, err := store.GetCategoryByName(context.Background(), name)
	require.NoError(t, err)
	require.NotNil(t, cat, "category %q not seeded", name)
	return cat.ID
}

func TestNewClassificationAgentRequiresFallbackCategory(t *testing.T) {
	store := testutil.SetupTestDB(t, "Groceries", "Dining")

	_, err := NewClassificationAgent(context.Background(), store, store, store, NewMockLLMClient())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoFallbackCategory)
}

func TestCategorizeRuleHit(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	agent := newTestClassifier(t, store, mock)
	ctx := context.Background()

	decision := agent.Categorize(ctx, 1, "Netflix", decimal.RequireFromString("-15.99"), time.Now())

	assert.Equal(t, categoryID(t, store, "Subscriptions"), decision.CategoryID)
	assert.True(t, decision.IsSubscription)
	assert.Equal(t, []string{"recurring", "expense"}, decision.Tags)
	assert.Equal(t, model.DecisionRule, decision.Source)
	assert.Empty(t, mock.ClassifyCalls())

	// Rule decisions are written through as agent learning
	cached, err := store.GetCachedCategorization(ctx, 1, "Netflix")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, model.SourceAgentLearning, cached.Source)
	assert.True(t, cached.IsSubscription)
}

func TestCategorizeCacheHit(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	agent := newTestClassifier(t, store, mock)
	ctx := context.Background()

	diningID := categoryID(t, store, "Dining")
	require.NoError(t, store.SetCachedCategorization(
		ctx, 1, "Corner Bakery", diningID, false, []string{"lunch"}, model.SourceUserFeedback))

	decision := agent.Categorize(ctx, 1, "Corner Bakery", decimal.RequireFromString("-8.50"), time.Now())

	assert.Equal(t, diningID, decision.CategoryID)
	assert.False(t, decision.IsSubscription)
	assert.Equal(t, []string{"lunch"}, decision.Tags)
	assert.Equal(t, model.DecisionCache, decision.Source)
	assert.Empty(t, mock.ClassifyCalls(), "cache hit must not reach the model")
}

func TestCategorizeCacheScopedToUser(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		return llm.ClassificationResponse{CategoryName: "Shopping"}, nil
	}
	agent := newTestClassifier(t, store, mock)
	ctx := context.Background()

	require.NoError(t, store.SetCachedCategorization(
		ctx, 1, "Corner Bakery", categoryID(t, store, "Dining"), false, nil, model.SourceUserFeedback))

	// A different user's cache entry must not apply
	decision := agent.Categorize(ctx, 2, "Corner Bakery", decimal.RequireFromString("-8.50"), time.Now())
	assert.Equal(t, model.DecisionLLM, decision.Source)
	assert.Len(t, mock.ClassifyCalls(), 1)
}

func TestCategorizeLLMPath(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		assert.Equal(t, "Blue Bottle Coffee", req.Merchant)
		assert.Equal(t, "-6.75", req.Amount)
		assert.Contains(t, req.Categories, "Other")
		return llm.ClassificationResponse{CategoryName: "Dining", Tags: []string{"coffee"}}, nil
	}
	agent := newTestClassifier(t, store, mock)
	ctx := context.Background()

	decision := agent.Categorize(ctx, 1, "Blue Bottle Coffee",
		decimal.RequireFromString("-6.75"), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, categoryID(t, store, "Dining"), decision.CategoryID)
	assert.False(t, decision.IsSubscription)
	assert.Equal(t, []string{"coffee"}, decision.Tags)
	assert.Equal(t, model.DecisionLLM, decision.Source)

	cached, err := store.GetCachedCategorization(ctx, 1, "Blue Bottle Coffee")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, model.SourceAgentLearning, cached.Source)

	// Second call is served from the learned cache
	decision = agent.Categorize(ctx, 1, "Blue Bottle Coffee", decimal.RequireFromString("-6.75"), time.Now())
	assert.Equal(t, model.DecisionCache, decision.Source)
	assert.Len(t, mock.ClassifyCalls(), 1)
}

func TestCategorizeUnknownCategoryDegradesToOther(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		return llm.ClassificationResponse{CategoryName: "Cryptocurrency"}, nil
	}
	agent := newTestClassifier(t, store, mock)

	decision := agent.Categorize(context.Background(), 1, "Blue Bottle Coffee",
		decimal.RequireFromString("-6.75"), time.Now())

	assert.Equal(t, categoryID(t, store, "Other"), decision.CategoryID)
	assert.Equal(t, model.DecisionLLM, decision.Source)
}

func TestCategorizePatternOverridesModelFlag(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	diningID := categoryID(t, store, "Dining")

	// Three near-identical charges a month apart
	for _, day := range []string{"2026-01-03", "2026-02-02", "2026-03-04"} {
		date, err := time.Parse("2006-01-02", day)
		require.NoError(t, err)
		require.NoError(t, store.SaveTransaction(ctx, &model.Transaction{
			ID:                 "gym-" + day,
			UserID:             1,
			Description:        "IRON WORKS GYM",
			NormalizedMerchant: "Iron Works Gym",
			Amount:             decimal.RequireFromString("-45.00"),
			CategoryID:         diningID,
			Date:               date,
		}))
	}

	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		// Model misses the subscription; the pattern signal must win
		return llm.ClassificationResponse{CategoryName: "Entertainment", IsSubscription: false}, nil
	}
	agent := newTestClassifier(t, store, mock)

	decision := agent.Categorize(ctx, 1, "Iron Works Gym", decimal.RequireFromString("-45.00"), time.Now())

	assert.Equal(t, model.DecisionLLM, decision.Source)
	assert.True(t, decision.IsSubscription)
}

func TestCategorizeFallbackNotCached(t *testing.T) {
	store := testutil.SetupTestDB(t)
	mock := NewMockLLMClient()
	mock.ClassifyFn = func(req llm.ClassifyRequest) (llm.ClassificationResponse, error) {
		return llm.ClassificationResponse{}, errors.New("model unavailable")
	}
	agent := newTestClassifier(t, store, mock)
	ctx := context.Background()

	decision := agent.Categorize(ctx, 1, "Blue Bottle Coffee", decimal.RequireFromString("-6.75"), time.Now())

	assert.Equal(t, categoryID(t, store, "Other"), decision.CategoryID)
	assert.False(t, decision.IsSubscription)
	assert.Nil(t, decision.Tags)
	assert.Equal(t, model.DecisionFallback, decision.Source)
	assert.Len(t, mock.ClassifyCalls(), fastRetryOpts.MaxAttempts)

	cached, err := store.GetCachedCategorization(ctx, 1, "Blue Bottle Coffee")
	require.NoError(t, err)
	assert.Nil(t, cached, "fallback decisions must not be cached")
}
