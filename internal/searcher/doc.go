// Package searcher implements multi-entity, relevance-ranked search over
// companions, user profiles, messages and checkpoints.
//
// Every entity searcher follows the same shape:
//   - Sanitize the query; an empty query or an anonymous caller yields an
//     empty list without touching the store
//   - Run one ranked, visibility-filtered store query under a per-query timeout
//   - Map store rows to the result types in pkg/types
//   - Absorb store failures: log them and return an empty list
//
// # Basic Usage
//
//	s, err := searcher.NewSearcher(store,
//	    searcher.WithLogger(logger),
//	    searcher.WithCache(1000, 30*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//
//	results := s.GlobalSearch(ctx, "romance", callerID)
//	for _, c := range results.Companions {
//	    fmt.Println(c.Name, len(c.Tags))
//	}
//
// # Global Search
//
// GlobalSearch fans out to the four entity searchers concurrently and joins
// them; the join is the only synchronization point. Each branch recovers its
// own panic, so a failing entity empties only its own list. GlobalSearch has no
// error return.
//
// # Visibility
//
// Companions and checkpoints are visible when public or owned by the caller.
// Users never match themselves. Messages come only from the caller's own chats.
//
// # Chat-Scoped Search
//
// SearchWithinChat is the one path that reports access problems: naming a
// chat the caller does not own fails with types.ErrAccessDenied.
//
// # Tags
//
// ListTags and SearchTags serve the tag catalog; tags are global, so no
// visibility rule applies. SearchCompanionsByTag filters companions by exact
// tag name.
//
// # Result Caps
//
//   - Companions, users, checkpoints: 20
//   - Messages (global): 50
//   - Messages (one chat): 100
//   - Tag search: 10
package searcher
