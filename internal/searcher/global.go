package searcher

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/haru-search/pkg/types"
)

// GlobalSearch runs the four entity searches concurrently and returns their
// lists side by side. It never fails: an anonymous caller, an empty query, or
// a broken dispatch all produce four empty lists, and a failing entity only
// empties its own list.
func (s *Searcher) GlobalSearch(ctx context.Context, rawQuery, callerID string) (results types.GlobalResults) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("global search dispatch panicked", "caller", callerID, "panic", r)
			results = types.EmptyGlobalResults()
		}
	}()

	query := Sanitize(rawQuery)
	if callerID == "" || query == "" {
		return types.EmptyGlobalResults()
	}

	key := cacheKey{query: query, callerID: callerID}
	if cached, ok := s.cache.get(key); ok {
		return cached
	}

	results = types.EmptyGlobalResults()
	var degraded atomic.Bool

	// A plain Group: branches report nothing, so one branch can never cancel its siblings
	var g errgroup.Group
	g.Go(func() error {
		results.Companions = isolate(s, &degraded, "companions", callerID, func() ([]types.CompanionResult, error) {
			return s.searchCompanions(ctx, query, callerID)
		})
		return nil
	})
	g.Go(func() error {
		results.Users = isolate(s, &degraded, "users", callerID, func() ([]types.UserResult, error) {
			return s.searchUsers(ctx, query, callerID)
		})
		return nil
	})
	g.Go(func() error {
		results.Messages = isolate(s, &degraded, "messages", callerID, func() ([]types.MessageResult, error) {
			return s.searchMessages(ctx, query, callerID)
		})
		return nil
	})
	g.Go(func() error {
		results.Checkpoints = isolate(s, &degraded, "checkpoints", callerID, func() ([]types.CheckpointResult, error) {
			return s.searchCheckpoints(ctx, query, callerID)
		})
		return nil
	})
	_ = g.Wait()

	// Degraded answers would otherwise be served for a whole TTL
	if !degraded.Load() && ctx.Err() == nil {
		s.cache.put(key, results)
	}

	return results
}

// isolate runs one branch of the fan-out. A store error or a panic empties
// this branch only and marks the response degraded.
func isolate[T any](s *Searcher, degraded *atomic.Bool, entity, callerID string, search func() ([]T, error)) (out []T) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("entity search panicked", "entity", entity, "caller", callerID, "panic", r)
			degraded.Store(true)
			out = []T{}
		}
	}()

	out, err := search()
	if err != nil {
		s.logFailure(entity, callerID, err)
		degraded.Store(true)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}
