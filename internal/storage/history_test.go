package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHistory_DedupeAndTrim(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := storage.AddSearchHistory(ctx, &HistoryRecord{
			UserID:    "u1",
			Query:     fmt.Sprintf("query %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}, 3)
		require.NoError(t, err)
	}

	records, err := storage.ListSearchHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "query 4", records[0].Query)
	assert.Equal(t, "query 2", records[2].Query)

	// Re-adding moves the query to the head without duplicating it
	err = storage.AddSearchHistory(ctx, &HistoryRecord{
		UserID: "u1", Query: "query 2", Category: "companions", CreatedAt: base.Add(time.Hour),
	}, 3)
	require.NoError(t, err)

	records, err = storage.ListSearchHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "query 2", records[0].Query)
	assert.Equal(t, "companions", records[0].Category)
	assert.NotEmpty(t, records[0].ID)
	assert.True(t, base.Add(time.Hour).Equal(records[0].CreatedAt))
}

func TestSearchHistory_PerUser(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, storage.AddSearchHistory(ctx, &HistoryRecord{UserID: "u1", Query: "kai"}, 20))
	require.NoError(t, storage.AddSearchHistory(ctx, &HistoryRecord{UserID: "u2", Query: "kai"}, 20))
	require.NoError(t, storage.AddSearchHistory(ctx, &HistoryRecord{UserID: "u2", Query: "sage"}, 20))

	require.NoError(t, storage.DeleteSearchHistory(ctx, "u2", "kai"))
	require.NoError(t, storage.DeleteSearchHistory(ctx, "u2", "missing"))

	u1, err := storage.ListSearchHistory(ctx, "u1", 20)
	require.NoError(t, err)
	assert.Len(t, u1, 1)

	u2, err := storage.ListSearchHistory(ctx, "u2", 20)
	require.NoError(t, err)
	require.Len(t, u2, 1)
	assert.Equal(t, "sage", u2[0].Query)

	require.NoError(t, storage.ClearSearchHistory(ctx, "u2"))
	u2, err = storage.ListSearchHistory(ctx, "u2", 20)
	require.NoError(t, err)
	assert.NotNil(t, u2)
	assert.Empty(t, u2)
}

func TestSearchHistory_DeleteByID(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	kai := &HistoryRecord{UserID: "u1", Query: "kai"}
	require.NoError(t, storage.AddSearchHistory(ctx, kai, 20))
	require.NoError(t, storage.AddSearchHistory(ctx, &HistoryRecord{UserID: "u1", Query: "sage"}, 20))
	require.NotEmpty(t, kai.ID)

	assert.ErrorIs(t, storage.DeleteSearchHistoryByID(ctx, "u2", kai.ID), ErrNotFound, "owner scoped")
	require.NoError(t, storage.DeleteSearchHistoryByID(ctx, "u1", kai.ID))
	assert.ErrorIs(t, storage.DeleteSearchHistoryByID(ctx, "u1", kai.ID), ErrNotFound)

	records, err := storage.ListSearchHistory(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sage", records[0].Query)
}
