package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/haru-search/internal/storage"
)

// Result caps per entity
const (
	CompanionLimit   = 20
	UserLimit        = 20
	CheckpointLimit  = 20
	MessageLimit     = 50
	ChatMessageLimit = 100
	TagSearchLimit   = 10
)

// DefaultQueryTimeout bounds every store call made by a searcher
const DefaultQueryTimeout = 5 * time.Second

// ErrStorageRequired is returned by NewSearcher when no store is given
var ErrStorageRequired = errors.New("storage is required")

// Searcher runs relevance-ranked, visibility-filtered searches against the store
type Searcher struct {
	store        storage.Storage
	logger       *slog.Logger
	queryTimeout time.Duration
	cache        *responseCache
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithQueryTimeout bounds each individual store query
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return fmt.Errorf("query timeout must be positive, got %s", d)
		}
		s.queryTimeout = d
		return nil
	}
}

// WithCache enables the global search response cache.
// A size of zero leaves caching disabled.
//
// Cached responses are not revalidated: a companion or checkpoint made
// private, or a message deleted, keeps appearing in GlobalSearch for up to
// ttl unless the writer calls InvalidateCache. Only enable it where that
// staleness is acceptable.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Searcher) error {
		if size == 0 {
			s.cache = nil
			return nil
		}
		cache, err := newResponseCache(size, ttl)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStorageRequired
	}

	s := &Searcher{
		store:        store,
		logger:       slog.Default(),
		queryTimeout: DefaultQueryTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// queryContext derives the bounded context for one store call
func (s *Searcher) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// logFailure records an absorbed per-entity failure
func (s *Searcher) logFailure(entity, callerID string, err error) {
	s.logger.Error("entity search failed", "entity", entity, "caller", callerID, "err", err)
}
