package searcher

import (
	"context"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// SearchMessages ranks live messages across the caller's own chats
func (s *Searcher) SearchMessages(ctx context.Context, query, callerID string) []types.MessageResult {
	results, err := s.searchMessages(ctx, Sanitize(query), callerID)
	if err != nil {
		s.logFailure("messages", callerID, err)
		return []types.MessageResult{}
	}
	return results
}

func (s *Searcher) searchMessages(ctx context.Context, query, callerID string) ([]types.MessageResult, error) {
	if query == "" || callerID == "" {
		return []types.MessageResult{}, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.store.SearchMessages(ctx, query, callerID, MessageLimit)
	if err != nil {
		return nil, err
	}

	return mapMessages(rows), nil
}

func mapMessages(rows []storage.MessageRow) []types.MessageResult {
	results := make([]types.MessageResult, 0, len(rows))
	for _, row := range rows {
		// Tombstoned content never surfaces
		if row.Content == nil {
			continue
		}
		results = append(results, types.MessageResult{
			ID:        row.ID,
			Content:   *row.Content,
			CreatedAt: row.CreatedAt,
			Chat: types.MessageChat{
				ID:    row.ChatID,
				Title: row.ChatTitle,
				Companion: types.MessageCompanion{
					Name:     row.CompanionName,
					ImageURL: row.CompanionImageURL,
				},
			},
		})
	}
	return results
}
