package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/haru-search/internal/history"
	"github.com/dshills/haru-search/internal/ratelimit"
	"github.com/dshills/haru-search/internal/searcher"
	"github.com/dshills/haru-search/internal/storage"
	"github.com/dshills/haru-search/pkg/types"
)

type testServer struct {
	handler http.Handler
	store   *storage.SQLiteStorage
	owner   *storage.User
	other   *storage.User
	chat    *storage.Chat
}

func strPtr(s string) *string { return &s }

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(storage.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	owner := &storage.User{Username: strPtr("owner")}
	other := &storage.User{Username: strPtr("other")}
	require.NoError(t, store.CreateUser(ctx, owner))
	require.NoError(t, store.CreateUser(ctx, other))

	romance := &storage.Tag{Name: "Romance"}
	require.NoError(t, store.CreateTag(ctx, romance))
	kai := &storage.Companion{Name: "Kai", IsPublic: true, CreatorID: other.ID}
	require.NoError(t, store.CreateCompanion(ctx, kai))
	require.NoError(t, store.AttachTag(ctx, kai.ID, romance.ID))

	chat := &storage.Chat{UserID: owner.ID, CompanionID: kai.ID}
	require.NoError(t, store.CreateChat(ctx, chat))
	require.NoError(t, store.CreateMessage(ctx, &storage.Message{
		Content: strPtr("a romance novel"), ChatID: chat.ID, SenderID: owner.ID,
	}))

	s, err := searcher.NewSearcher(store)
	require.NoError(t, err)
	h := NewAPIHandler(s, history.NewLog(store, 0), limiter, nil)

	return &testServer{handler: NewRouter(h), store: store, owner: owner, other: other, chat: chat}
}

func (ts *testServer) do(t *testing.T, method, target, callerID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if callerID != "" {
		req.Header.Set(CallerHeader, callerID)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGlobalSearch(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/search?q=romance", ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[types.GlobalResults](t, rec)
	require.Len(t, results.Companions, 1)
	assert.Equal(t, "Kai", results.Companions[0].Name)
	assert.Len(t, results.Messages, 1)

	// Anonymous callers get four empty lists, encoded as []
	rec = ts.do(t, http.MethodGet, "/api/search?q=romance", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"companions":[],"users":[],"messages":[],"checkpoints":[]}`, rec.Body.String())
}

func TestEntitySearch(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/search/companions?q=romance", ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	companions := decode[[]types.CompanionResult](t, rec)
	require.Len(t, companions, 1)
	assert.Equal(t, "Romance", companions[0].Tags[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/search/users?q=owner", ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/search/checkpoints?q=x", ts.owner.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/search/spaceships?q=x", ts.owner.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatSearch(t *testing.T) {
	ts := newTestServer(t, nil)
	target := "/api/chats/" + ts.chat.ID + "/search?q=novel"

	rec := ts.do(t, http.MethodGet, target, ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[[]types.ChatMessageResult](t, rec)
	require.Len(t, messages, 1)
	assert.Equal(t, ts.owner.ID, messages[0].Sender.ID)

	rec = ts.do(t, http.MethodGet, target, ts.other.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/chats/missing/search?q=novel", ts.owner.ID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTagRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/tags", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]types.TagResult](t, rec)
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].CompanionCount)

	rec = ts.do(t, http.MethodGet, "/api/tags/search?q=rom", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.TagResult](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/tags/search", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/tags/romance/companions", ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.CompanionResult](t, rec), 1)
}

func TestHistoryRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/search/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"kai","category":"companions"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[types.HistoryEntry](t, rec)
	assert.Equal(t, "kai", entry.Query)

	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"sage"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"  "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"x","category":"planets"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/search/history", ts.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]types.HistoryEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "sage", entries[0].Query)

	rec = ts.do(t, http.MethodDelete, "/api/search/history?q=sage", ts.owner.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/search/history", ts.owner.ID, "")
	assert.Len(t, decode[[]types.HistoryEntry](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, "/api/search/history", ts.owner.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/search/history", ts.owner.ID, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHistoryRoutes_DeleteByID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"kai"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	kai := decode[types.HistoryEntry](t, rec)
	rec = ts.do(t, http.MethodPost, "/api/search/history", ts.owner.ID, `{"query":"sage"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Another caller cannot delete the owner's entry
	rec = ts.do(t, http.MethodDelete, "/api/search/history/"+kai.ID, ts.other.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/search/history/"+kai.ID, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/search/history/"+kai.ID, ts.owner.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/search/history", ts.owner.ID, "")
	entries := decode[[]types.HistoryEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "sage", entries[0].Query)

	rec = ts.do(t, http.MethodDelete, "/api/search/history/"+kai.ID, ts.owner.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter, err := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, BurstSize: 2})
	require.NoError(t, err)
	ts := newTestServer(t, limiter)

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodGet, "/api/search?q=kai", ts.owner.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/search?q=kai", ts.owner.ID, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other callers and the tag catalog are unaffected
	rec = ts.do(t, http.MethodGet, "/api/search?q=kai", ts.other.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/tags", ts.owner.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStripSlashes(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/health/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
