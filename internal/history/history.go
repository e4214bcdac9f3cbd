// Package history keeps a bounded, newest-first log of each caller's recent searches.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// DefaultMaxEntries bounds each caller's log
const DefaultMaxEntries = 20

// Search categories a history entry may carry. Empty means uncategorized.
const (
	CategoryGlobal      = "global"
	CategoryCompanions  = "companions"
	CategoryUsers       = "users"
	CategoryMessages    = "messages"
	CategoryCheckpoints = "checkpoints"
)

var (
	// ErrCallerRequired is returned when no caller identity is given
	ErrCallerRequired = errors.New("caller identity required")

	// ErrInvalidCategory is returned for an unknown category
	ErrInvalidCategory = errors.New("invalid history category")

	// ErrEntryNotFound means the caller has no entry with the given id
	ErrEntryNotFound = errors.New("history entry not found")
)

var validCategories = map[string]bool{
	"":                  true,
	CategoryGlobal:      true,
	CategoryCompanions:  true,
	CategoryUsers:       true,
	CategoryMessages:    true,
	CategoryCheckpoints: true,
}

// Log is a per-caller search history backed by the store
type Log struct {
	store      storage.Storage
	maxEntries int
}

// NewLog creates a history log keeping at most maxEntries per caller.
// A non-positive maxEntries uses DefaultMaxEntries.
func NewLog(store storage.Storage, maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{store: store, maxEntries: maxEntries}
}

// Add records query at the head of the caller's log. A repeated query moves
// to the head instead of appearing twice. Blank queries are ignored.
func (l *Log) Add(ctx context.Context, callerID, query, category string) (*types.HistoryEntry, error) {
	if callerID == "" {
		return nil, ErrCallerRequired
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if !validCategories[category] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	record := &storage.HistoryRecord{UserID: callerID, Query: query, Category: category}
	if err := l.store.AddSearchHistory(ctx, record, l.maxEntries); err != nil {
		return nil, fmt.Errorf("failed to add history entry: %w", err)
	}

	entry := toEntry(record)
	return &entry, nil
}

// List returns the caller's entries, newest first
func (l *Log) List(ctx context.Context, callerID string) ([]types.HistoryEntry, error) {
	if callerID == "" {
		return nil, ErrCallerRequired
	}

	records, err := l.store.ListSearchHistory(ctx, callerID, l.maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]types.HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r))
	}
	return entries, nil
}

// Remove deletes one query from the caller's log
func (l *Log) Remove(ctx context.Context, callerID, query string) error {
	if callerID == "" {
		return ErrCallerRequired
	}
	if err := l.store.DeleteSearchHistory(ctx, callerID, strings.TrimSpace(query)); err != nil {
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	return nil
}

// RemoveByID deletes one entry of the caller's log by its id
func (l *Log) RemoveByID(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return ErrCallerRequired
	}
	err := l.store.DeleteSearchHistoryByID(ctx, callerID, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrEntryNotFound
	case err != nil:
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	return nil
}

// Clear empties the caller's log
func (l *Log) Clear(ctx context.Context, callerID string) error {
	if callerID == "" {
		return ErrCallerRequired
	}
	if err := l.store.ClearSearchHistory(ctx, callerID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func toEntry(r *storage.HistoryRecord) types.HistoryEntry {
	return types.HistoryEntry{
		ID:        r.ID,
		Query:     r.Query,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
	}
}
