package searcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// SearchWithinChat ranks messages of a single chat the caller owns.
//
// An empty query yields no results before any lookup. A chat that does not
// exist or belongs to someone else fails with types.ErrAccessDenied; store
// failures are returned wrapped in types.ErrStoreFailure.
func (s *Searcher) SearchWithinChat(ctx context.Context, chatID, query, callerID string) ([]types.ChatMessageResult, error) {
	query = Sanitize(query)
	if query == "" {
		return []types.ChatMessageResult{}, nil
	}
	if callerID == "" || chatID == "" {
		return nil, types.ErrAccessDenied
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	chat, err := s.store.GetChat(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("%w: looking up chat: %w", types.ErrStoreFailure, err)
	}
	if chat.UserID != callerID {
		return nil, types.ErrAccessDenied
	}

	rows, err := s.store.SearchChatMessages(ctx, chatID, query, ChatMessageLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: searching chat messages: %w", types.ErrStoreFailure, err)
	}

	return mapChatMessages(rows), nil
}

func mapChatMessages(rows []storage.ChatMessageRow) []types.ChatMessageResult {
	results := make([]types.ChatMessageResult, 0, len(rows))
	for _, row := range rows {
		if row.Content == nil {
			continue
		}
		results = append(results, types.ChatMessageResult{
			ID:        row.ID,
			Content:   *row.Content,
			CreatedAt: row.CreatedAt,
			Sender: types.Sender{
				ID:          row.SenderID,
				Username:    row.SenderUsername,
				DisplayName: row.SenderDisplayName,
			},
		})
	}
	return results
}
