package searcher

import (
	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

// aggregateTags folds flattened (companion, tag) rows into one result per
// companion, keeping the rank order of each companion's first row. Rows the
// visibility rule rejects are dropped, and at most limit companions are returned.
func aggregateTags(rows []storage.CompanionRow, visibility storage.OwnerOrPublic, limit int) []types.CompanionResult {
	results := []types.CompanionResult{}
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		if !visibility.Allows(row.IsPublic, row.CreatorID) {
			continue
		}

		i, seen := index[row.ID]
		if !seen {
			if len(results) >= limit {
				continue
			}
			i = len(results)
			index[row.ID] = i
			results = append(results, types.CompanionResult{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				ImageURL:    row.ImageURL,
				IsPublic:    row.IsPublic,
				Creator: types.Creator{
					Username:    row.CreatorUsername,
					DisplayName: row.CreatorDisplayName,
				},
				Tags: []types.TagRef{},
			})
		}

		if row.TagID != nil && row.TagName != nil {
			results[i].Tags = appendTag(results[i].Tags, types.TagRef{ID: *row.TagID, Name: *row.TagName})
		}
	}

	return results
}

// appendTag adds tag unless the companion already carries it
func appendTag(tags []types.TagRef, tag types.TagRef) []types.TagRef {
	for _, t := range tags {
		if t.ID == tag.ID {
			return tags
		}
	}
	return append(tags, tag)
}
