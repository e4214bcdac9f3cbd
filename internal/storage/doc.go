// Package storage provides SQLite-based persistence for the search engine.
//
// The storage layer manages:
//   - Users, companions, tags and the companion/tag join
//   - Chats, messages (soft deleted via a tombstone) and checkpoints
//   - Per-user search history
//   - FTS5 full-text indexes kept in sync by triggers
//
// # Database Schema
//
// Tables:
//   - users, companions, tags, companion_tags
//   - chats, messages, chat_checkpoints
//   - search_history: bounded per-user query log
//   - users_fts, companions_fts, messages_fts, checkpoints_fts: FTS5 indexes
//
// companions_fts carries a tags column holding the names of every tag
// attached to the companion, so tag text is ranked together with the
// companion's own name and description.
//
// # Ranking
//
// Every search query orders by -bm25(...) (higher is better), then an
// entity-specific secondary key, then rowid. Free text is converted to an
// FTS5 expression of quoted terms, so operator words are matched literally
// and all terms must occur.
//
// # Visibility
//
// Companions and checkpoints are filtered with OwnerOrPublic, which renders
// the same rule in SQL and in Go:
//
//	rows, err := db.SearchCompanions(ctx, "romance", storage.OwnerOrPublic{CallerID: userID}, 20)
//
// # Transactions
//
// Use transactions for atomic writes:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.CreateCompanion(ctx, companion)
//	_ = tx.AttachTag(ctx, companion.ID, tag.ID)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires a C compiler and the sqlite_fts5 tag
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5"
package storage
