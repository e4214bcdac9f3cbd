package searcher

import (
	"context"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// SearchUsers ranks user profiles. The caller's own profile never matches.
func (s *Searcher) SearchUsers(ctx context.Context, query, callerID string) []types.UserResult {
	results, err := s.searchUsers(ctx, Sanitize(query), callerID)
	if err != nil {
		s.logFailure("users", callerID, err)
		return []types.UserResult{}
	}
	return results
}

func (s *Searcher) searchUsers(ctx context.Context, query, callerID string) ([]types.UserResult, error) {
	if query == "" || callerID == "" {
		return []types.UserResult{}, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	rows, err := s.store.SearchUsers(ctx, query, callerID, UserLimit)
	if err != nil {
		return nil, err
	}

	return mapUsers(rows, callerID), nil
}

func mapUsers(rows []storage.UserRow, callerID string) []types.UserResult {
	results := make([]types.UserResult, 0, len(rows))
	for _, row := range rows {
		if row.ID == callerID {
			continue
		}
		results = append(results, types.UserResult{
			ID:          row.ID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			Bio:         row.Bio,
			ImageURL:    row.ImageURL,
		})
	}
	return results
}
