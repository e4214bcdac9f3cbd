package searcher

import (
	"context"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// SearchCheckpoints ranks checkpoints the caller may see; ties go to the most used
func (s *Searcher) SearchCheckpoints(ctx context.Context, query, callerID string) []types.CheckpointResult {
	results, err := s.searchCheckpoints(ctx, Sanitize(query), callerID)
	if err != nil {
		s.logFailure("checkpoints", callerID, err)
		return []types.CheckpointResult{}
	}
	return results
}

func (s *Searcher) searchCheckpoints(ctx context.Context, query, callerID string) ([]types.CheckpointResult, error) {
	if query == "" || callerID == "" {
		return []types.CheckpointResult{}, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	visibility := storage.OwnerOrPublic{CallerID: callerID}
	rows, err := s.store.SearchCheckpoints(ctx, query, visibility, CheckpointLimit)
	if err != nil {
		return nil, err
	}

	return mapCheckpoints(rows, visibility), nil
}

func mapCheckpoints(rows []storage.CheckpointRow, visibility storage.OwnerOrPublic) []types.CheckpointResult {
	results := make([]types.CheckpointResult, 0, len(rows))
	for _, row := range rows {
		if !visibility.Allows(row.IsPublic, row.CreatorID) {
			continue
		}
		results = append(results, types.CheckpointResult{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			UsageCount:  row.UsageCount,
			IsPublic:    row.IsPublic,
			Creator: types.Creator{
				Username:    row.CreatorUsername,
				DisplayName: row.CreatorDisplayName,
			},
		})
	}
	return results
}
