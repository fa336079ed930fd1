package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/rules"
)

// GetCachedCategorization looks up a user's cached category decision for a
// merchant. The merchant is normalized to its cache key before lookup.
// Read-only.
func (s *SQLiteStorage) GetCachedCategorization(ctx context.Context, userID int64, merchant string) (*model.Categorization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}

	merchantKey := rules.NormalizeCacheKey(merchant)

	var entry model.Categorization
	var tagsJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, merchant_key, category_id, is_subscription, tags, source, created_at
		FROM user_categorization_cache
		WHERE user_id = ? AND merchant_key = ?
	`, userID, merchantKey).Scan(
		&entry.UserID,
		&entry.MerchantKey,
		&entry.CategoryID,
		&entry.IsSubscription,
		&tagsJSON,
		&entry.Source,
		&entry.CachedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("categorization cache miss", "user_id", userID, "merchant", merchant)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query categorization cache: %w", err)
	}

	tags, err := decodeTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	entry.Tags = tags

	slog.Debug("categorization cache hit",
		"user_id", userID,
		"merchant", merchant,
		"category_id", entry.CategoryID,
		"source", entry.Source)
	return &entry, nil
}

// SetCachedCategorization upserts a user's category decision for a merchant.
//
// Tags are validated before storage. The user_feedback precedence rule is
// enforced inside the upsert statement itself: the DO UPDATE clause refuses
// to replace an existing user_feedback row with an agent_learning write, so
// the check and the write are one atomic operation even under concurrent
// pipelines. A blocked write is a logged no-op, not an error.
func (s *SQLiteStorage) SetCachedCategorization(ctx context.Context, userID int64, merchant string, categoryID int64, isSubscription bool, tags []string, source model.CategorizationSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}
	if err := validateString(string(source), "source"); err != nil {
		return err
	}

	merchantKey := rules.NormalizeCacheKey(merchant)
	tagsJSON, err := encodeTags(rules.ValidateTags(tags))
	if err != nil {
		return err
	}
	now := time.Now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_categorization_cache (user_id, merchant_key, category_id, is_subscription, tags, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, merchant_key) DO UPDATE SET
			category_id = excluded.category_id,
			is_subscription = excluded.is_subscription,
			tags = excluded.tags,
			source = excluded.source,
			updated_at = excluded.updated_at
		WHERE NOT (user_categorization_cache.source = ? AND excluded.source = ?)
	`, userID, merchantKey, categoryID, isSubscription, tagsJSON, string(source), now, now,
		string(model.SourceUserFeedback), string(model.SourceAgentLearning))

	if err != nil {
		return fmt.Errorf("failed to cache categorization: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		slog.Debug("categorization write skipped, user feedback takes precedence",
			"user_id", userID,
			"merchant", merchant)
		return nil
	}

	slog.Debug("cached categorization",
		"user_id", userID,
		"merchant", merchant,
		"category_id", categoryID,
		"source", source)
	return nil
}

// InvalidateUserCache deletes every categorization cache row for a user and
// returns the number removed. Transaction rows are untouched.
func (s *SQLiteStorage) InvalidateUserCache(ctx context.Context, userID int64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM user_categorization_cache WHERE user_id = ?
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate user cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Info("invalidated categorization cache", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
