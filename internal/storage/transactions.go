package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dhalloway/pennywise/internal/common"
	"github.com/dhalloway/pennywise/internal/model"
	"github.com/dhalloway/pennywise/internal/service"
)

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var txn model.Transaction
	var merchant sql.NullString
	var categoryID sql.NullInt64
	var tagsJSON sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, description, normalized_merchant, amount, date,
		       category_id, is_subscription, tags, created_at
		FROM transactions
		WHERE id = ?
	`, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Description,
		&merchant,
		&txn.Amount,
		&txn.Date,
		&categoryID,
		&txn.IsSubscription,
		&tagsJSON,
		&txn.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.NormalizedMerchant = merchant.String
	txn.CategoryID = categoryID.Int64
	tags, err := decodeTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	txn.Tags = tags

	return &txn, nil
}

// SaveTransaction inserts or replaces a transaction row.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: txn", ErrNilParameter)
	}
	if err := validateString(txn.ID, "txn.ID"); err != nil {
		return err
	}

	tagsJSON, err := encodeTags(txn.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, description, normalized_merchant, amount, date, category_id, is_subscription, tags)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, 0), ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			normalized_merchant = excluded.normalized_merchant,
			amount = excluded.amount,
			date = excluded.date,
			category_id = excluded.category_id,
			is_subscription = excluded.is_subscription,
			tags = excluded.tags
	`, txn.ID, txn.UserID, txn.Description, txn.NormalizedMerchant, txn.Amount, txn.Date, txn.CategoryID, txn.IsSubscription, tagsJSON)

	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// SaveClassification writes the pipeline's results back to a transaction in
// one update.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, id, normalizedMerchant string, categoryID int64, isSubscription bool, tags []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tagsJSON, err := encodeTags(tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET normalized_merchant = ?, category_id = ?, is_subscription = ?, tags = ?
		WHERE id = ?
	`, normalizedMerchant, categoryID, isSubscription, tagsJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	slog.Info("updated transaction classification",
		"transaction_id", id,
		"merchant", normalizedMerchant,
		"category_id", categoryID)
	return nil
}

// GetRecentMerchantActivity returns up to limit (amount, date) pairs for a
// user's transactions matching a normalized merchant, most recent first.
func (s *SQLiteStorage) GetRecentMerchantActivity(ctx context.Context, userID int64, merchant string, limit int) ([]service.MerchantActivity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT amount, date
		FROM transactions
		WHERE user_id = ? AND normalized_merchant = ?
		ORDER BY date DESC
		LIMIT ?
	`, userID, merchant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activity []service.MerchantActivity
	for rows.Next() {
		var a service.MerchantActivity
		if err := rows.Scan(&a.Amount, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan merchant activity: %w", err)
		}
		activity = append(activity, a)
	}

	return activity, rows.Err()
}

// encodeTags stores nil/empty tag lists as SQL NULL.
func encodeTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(tagsJSON sql.NullString) ([]string, error) {
	if !tagsJSON.Valid || tagsJSON.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}
