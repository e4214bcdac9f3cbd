package searcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// ListTags returns every tag, alphabetical, with its companion count
func (s *Searcher) ListTags(ctx context.Context) ([]types.TagResult, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tags: %w", types.ErrStoreFailure, err)
	}
	return mapTags(tags), nil
}

// SearchTags returns up to TagSearchLimit tags whose name contains query,
// ignoring case. The query is only trimmed, so names like "slice-of-life" match.
func (s *Searcher) SearchTags(ctx context.Context, query string) ([]types.TagResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.TagResult{}, nil
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	tags, err := s.store.SearchTags(ctx, query, TagSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: searching tags: %w", types.ErrStoreFailure, err)
	}
	return mapTags(tags), nil
}

// SearchCompanionsByTag lists visible companions carrying the named tag, newest first
func (s *Searcher) SearchCompanionsByTag(ctx context.Context, tagName, callerID string) []types.CompanionResult {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" || callerID == "" {
		return []types.CompanionResult{}
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	visibility := storage.OwnerOrPublic{CallerID: callerID}
	rows, err := s.store.CompanionsByTag(ctx, tagName, visibility, CompanionLimit)
	if err != nil {
		s.logFailure("companions_by_tag", callerID, err)
		return []types.CompanionResult{}
	}

	return aggregateTags(rows, visibility, CompanionLimit)
}

func mapTags(tags []storage.TagCount) []types.TagResult {
	results := make([]types.TagResult, 0, len(tags))
	for _, t := range tags {
		results = append(results, types.TagResult{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			CompanionCount: t.CompanionCount,
		})
	}
	return results
}
