package searcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/haru-search/internal/storage"
)

var errStoreDown = errors.New("store down")

func strPtr(s string) *string { return &s }

// fixture seeds an in-memory store through the write API
type fixture struct {
	t       *testing.T
	store   *storage.SQLiteStorage
	clock   time.Time
	logs    *syncBuffer
	options []Option
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{
		t:     t,
		store: store,
		clock: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		logs:  &syncBuffer{},
	}
}

// searcher builds a Searcher over s, logging into the fixture buffer
func (f *fixture) searcher(s storage.Storage, opts ...Option) *Searcher {
	f.t.Helper()
	logger := slog.New(slog.NewTextHandler(f.logs, nil))
	all := append([]Option{WithLogger(logger)}, opts...)
	srch, err := NewSearcher(s, all...)
	require.NoError(f.t, err)
	return srch
}

// tick returns strictly increasing creation times
func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fixture) user(username string) *storage.User {
	f.t.Helper()
	u := &storage.User{Username: strPtr(username), DisplayName: strPtr(username), CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) tag(name string) *storage.Tag {
	f.t.Helper()
	tag := &storage.Tag{Name: name, CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateTag(context.Background(), tag))
	return tag
}

func (f *fixture) companion(name string, public bool, owner *storage.User, tags ...*storage.Tag) *storage.Companion {
	f.t.Helper()
	ctx := context.Background()
	c := &storage.Companion{Name: name, IsPublic: public, CreatorID: owner.ID, CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateCompanion(ctx, c))
	for _, tag := range tags {
		require.NoError(f.t, f.store.AttachTag(ctx, c.ID, tag.ID))
	}
	return c
}

func (f *fixture) chat(owner *storage.User, companion *storage.Companion, title string) *storage.Chat {
	f.t.Helper()
	chat := &storage.Chat{UserID: owner.ID, CompanionID: companion.ID, CreatedAt: f.tick()}
	if title != "" {
		chat.Title = strPtr(title)
	}
	require.NoError(f.t, f.store.CreateChat(context.Background(), chat))
	return chat
}

func (f *fixture) message(chat *storage.Chat, senderID, content string) *storage.Message {
	f.t.Helper()
	m := &storage.Message{Content: strPtr(content), ChatID: chat.ID, SenderID: senderID, CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateMessage(context.Background(), m))
	return m
}

func (f *fixture) checkpoint(title string, usage int, public bool, owner *storage.User) *storage.Checkpoint {
	f.t.Helper()
	cp := &storage.Checkpoint{Title: title, UsageCount: usage, IsPublic: public, CreatorID: owner.ID, CreatedAt: f.tick()}
	require.NoError(f.t, f.store.CreateCheckpoint(context.Background(), cp))
	return cp
}

// faultyStore wraps a real store and fails or panics on selected reads
type faultyStore struct {
	storage.Storage

	fail  map[string]bool
	panic map[string]bool
	calls atomic.Int32
}

func newFaultyStore(inner storage.Storage) *faultyStore {
	return &faultyStore{Storage: inner, fail: map[string]bool{}, panic: map[string]bool{}}
}

func (f *faultyStore) check(entity string) error {
	f.calls.Add(1)
	if f.panic[entity] {
		panic(entity + " exploded")
	}
	if f.fail[entity] {
		return errStoreDown
	}
	return nil
}

func (f *faultyStore) SearchCompanions(ctx context.Context, query string, v storage.OwnerOrPublic, limit int) ([]storage.CompanionRow, error) {
	if err := f.check("companions"); err != nil {
		return nil, err
	}
	return f.Storage.SearchCompanions(ctx, query, v, limit)
}

func (f *faultyStore) SearchUsers(ctx context.Context, query, exclude string, limit int) ([]storage.UserRow, error) {
	if err := f.check("users"); err != nil {
		return nil, err
	}
	return f.Storage.SearchUsers(ctx, query, exclude, limit)
}

func (f *faultyStore) SearchMessages(ctx context.Context, query, owner string, limit int) ([]storage.MessageRow, error) {
	if err := f.check("messages"); err != nil {
		return nil, err
	}
	return f.Storage.SearchMessages(ctx, query, owner, limit)
}

func (f *faultyStore) SearchCheckpoints(ctx context.Context, query string, v storage.OwnerOrPublic, limit int) ([]storage.CheckpointRow, error) {
	if err := f.check("checkpoints"); err != nil {
		return nil, err
	}
	return f.Storage.SearchCheckpoints(ctx, query, v, limit)
}

func (f *faultyStore) GetChat(ctx context.Context, chatID string) (*storage.Chat, error) {
	if err := f.check("chat"); err != nil {
		return nil, err
	}
	return f.Storage.GetChat(ctx, chatID)
}

func (f *faultyStore) SearchChatMessages(ctx context.Context, chatID, query string, limit int) ([]storage.ChatMessageRow, error) {
	if err := f.check("chat_messages"); err != nil {
		return nil, err
	}
	return f.Storage.SearchChatMessages(ctx, chatID, query, limit)
}

func (f *faultyStore) CompanionsByTag(ctx context.Context, tagName string, v storage.OwnerOrPublic, limit int) ([]storage.CompanionRow, error) {
	if err := f.check("companions_by_tag"); err != nil {
		return nil, err
	}
	return f.Storage.CompanionsByTag(ctx, tagName, v, limit)
}

func (f *faultyStore) ListTags(ctx context.Context) ([]storage.TagCount, error) {
	if err := f.check("tags"); err != nil {
		return nil, err
	}
	return f.Storage.ListTags(ctx)
}

func (f *faultyStore) SearchTags(ctx context.Context, substring string, limit int) ([]storage.TagCount, error) {
	if err := f.check("tags"); err != nil {
		return nil, err
	}
	return f.Storage.SearchTags(ctx, substring, limit)
}

// syncBuffer is a goroutine-safe log sink
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
