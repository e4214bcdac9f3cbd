package storage

import (
	"context"
	"fmt"
)

// AddSearchHistory records a query for a user. An identical earlier query is
// replaced so the newest occurrence wins, and only the newest keep entries survive.
func (s *SQLiteStorage) AddSearchHistory(ctx context.Context, record *HistoryRecord, keep int) error {
	prepareIdentity(&record.ID, &record.CreatedAt)

	return s.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`DELETE FROM search_history WHERE user_id = ? AND query = ?`,
			record.UserID, record.Query,
		); err != nil {
			return fmt.Errorf("failed to dedupe search history: %w", err)
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO search_history (id, user_id, query, category, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, record.ID, record.UserID, record.Query, record.Category, record.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert search history: %w", err)
		}

		if keep > 0 {
			if _, err := q.ExecContext(ctx, `
				DELETE FROM search_history
				WHERE user_id = ? AND rowid NOT IN (
					SELECT rowid FROM search_history
					WHERE user_id = ?
					ORDER BY created_at DESC, rowid DESC
					LIMIT ?
				)
			`, record.UserID, record.UserID, keep); err != nil {
				return fmt.Errorf("failed to trim search history: %w", err)
			}
		}
		return nil
	})
}

// ListSearchHistory returns a user's entries, newest first
func (s *SQLiteStorage) ListSearchHistory(ctx context.Context, userID string, limit int) ([]*HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, category, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []*HistoryRecord{}
	for rows.Next() {
		var record HistoryRecord
		var createdAt timestamp
		if err := rows.Scan(&record.ID, &record.UserID, &record.Query, &record.Category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		record.CreatedAt = createdAt.Time
		records = append(records, &record)
	}
	return records, rows.Err()
}

// DeleteSearchHistory removes one query from a user's history. Missing entries are not an error.
func (s *SQLiteStorage) DeleteSearchHistory(ctx context.Context, userID, query string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE user_id = ? AND query = ?`, userID, query,
	); err != nil {
		return fmt.Errorf("failed to delete search history: %w", err)
	}
	return nil
}

// DeleteSearchHistoryByID removes one entry owned by userID.
// ErrNotFound covers both a missing id and an entry of another user.
func (s *SQLiteStorage) DeleteSearchHistoryByID(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE user_id = ? AND id = ?`, userID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete search history: %w", err)
	}
	return requireAffected(result)
}

// ClearSearchHistory removes all of a user's history
func (s *SQLiteStorage) ClearSearchHistory(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
