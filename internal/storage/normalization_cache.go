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

// GetCachedNormalization looks up a cached normalized merchant name. The raw
// merchant is normalized to its cache key before lookup. Read-only.
func (s *SQLiteStorage) GetCachedNormalization(ctx context.Context, rawMerchant string) (*model.MerchantNormalization, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(rawMerchant, "rawMerchant"); err != nil {
		return nil, err
	}

	cacheKey := rules.NormalizeCacheKey(rawMerchant)

	var entry model.MerchantNormalization
	err := s.db.QueryRowContext(ctx, `
		SELECT raw_merchant, normalized_merchant, created_at
		FROM merchant_normalization_cache
		WHERE raw_merchant = ?
	`, cacheKey).Scan(&entry.RawMerchant, &entry.NormalizedMerchant, &entry.CachedAt)

	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("normalization cache miss", "merchant", rawMerchant)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query normalization cache: %w", err)
	}

	slog.Debug("normalization cache hit",
		"merchant", rawMerchant,
		"normalized", entry.NormalizedMerchant)
	return &entry, nil
}

// SetCachedNormalization upserts a merchant normalization. A second write for
// the same key replaces the value and bumps the update timestamp; the insert
// and update are resolved by the engine, so concurrent writers for one key
// leave exactly one row.
func (s *SQLiteStorage) SetCachedNormalization(ctx context.Context, rawMerchant, normalizedMerchant string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(rawMerchant, "rawMerchant"); err != nil {
		return err
	}
	if err := validateString(normalizedMerchant, "normalizedMerchant"); err != nil {
		return err
	}

	cacheKey := rules.NormalizeCacheKey(rawMerchant)
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merchant_normalization_cache (raw_merchant, normalized_merchant, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(raw_merchant) DO UPDATE SET
			normalized_merchant = excluded.normalized_merchant,
			updated_at = excluded.updated_at
	`, cacheKey, normalizedMerchant, now, now)

	if err != nil {
		return fmt.Errorf("failed to cache normalization: %w", err)
	}

	slog.Debug("cached normalization",
		"merchant", rawMerchant,
		"normalized", normalizedMerchant)
	return nil
}
