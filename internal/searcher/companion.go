package searcher

import (
	"context"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// SearchCompanions ranks companions the caller may see. Tag names count as
// companion text, and every result carries its full tag list.
func (s *Searcher) SearchCompanions(ctx context.Context, query, callerID string) []types.CompanionResult {
	results, err := s.searchCompanions(ctx, Sanitize(query), callerID)
	if err != nil {
		s.logFailure("companions", callerID, err)
		return []types.CompanionResult{}
	}
	return results
}

func (s *Searcher) searchCompanions(ctx context.Context, query, callerID string) ([]types.CompanionResult, error) {
	if query == "" || callerID == "" {
		return []types.CompanionResult{}, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	visibility := storage.OwnerOrPublic{CallerID: callerID}
	rows, err := s.store.SearchCompanions(ctx, query, visibility, CompanionLimit)
	if err != nil {
		return nil, err
	}

	return aggregateTags(rows, visibility, CompanionLimit), nil
}
