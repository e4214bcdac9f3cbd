package storage_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dshills/haru-search/internal/storage"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(storage.DriverName, storage.InMemoryDSN)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Every pooled connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyMigrations(t *testing.T) {
	db := openRawDB(t)

	// Apply migrations
	ctx := context.Background()
	if err := storage.ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	// Verify schema_version table exists
	var version string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	if err != nil {
		t.Fatalf("Failed to query schema version: %v", err)
	}

	if version != storage.CurrentSchemaVersion {
		t.Errorf("Expected schema version %s, got %s", storage.CurrentSchemaVersion, version)
	}

	// Verify all tables exist
	tables := []string{
		"users", "companions", "tags", "companion_tags", "chats", "messages",
		"chat_checkpoints", "search_history",
		"users_fts", "companions_fts", "messages_fts", "checkpoints_fts",
	}

	for _, table := range tables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if err == sql.ErrNoRows {
			t.Errorf("Table %s does not exist", table)
		} else if err != nil {
			t.Errorf("Failed to check table %s: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	// Apply migrations twice
	if err := storage.ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("First migration failed: %v", err)
	}

	if err := storage.ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}

	// Should only have one version record
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count versions: %v", err)
	}

	if count != 1 {
		t.Errorf("Expected 1 schema version record, got %d", count)
	}
}

func TestRollbackMigration(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	if err := storage.ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	if err := storage.RollbackMigration(ctx, db); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='companions'").Scan(&name)
	if err != sql.ErrNoRows {
		t.Errorf("Expected companions table to be dropped, got err=%v", err)
	}

	// Nothing left to roll back
	if err := storage.RollbackMigration(ctx, db); err == nil {
		t.Error("Expected error rolling back an empty schema")
	}

	// And the schema can be rebuilt
	if err := storage.ApplyMigrations(ctx, db); err != nil {
		t.Fatalf("Failed to re-apply migrations: %v", err)
	}
}

func TestSchemaTriggersKeepIndexInSync(t *testing.T) {
	store, err := storage.NewSQLiteStorage(storage.InMemoryDSN)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	name := "morgan"
	user := &storage.User{Username: &name}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	checkpoint := &storage.Checkpoint{Title: "Harbor at night", IsPublic: true, CreatorID: user.ID}
	if err := store.CreateCheckpoint(ctx, checkpoint); err != nil {
		t.Fatalf("Failed to create checkpoint: %v", err)
	}

	rows, err := store.SearchCheckpoints(ctx, "harbor", storage.OwnerOrPublic{CallerID: "someone"}, 20)
	if err != nil {
		t.Fatalf("Failed to search checkpoints: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 checkpoint, got %d", len(rows))
	}
	if rows[0].CreatorUsername == nil || *rows[0].CreatorUsername != "morgan" {
		t.Errorf("Expected creator username morgan, got %v", rows[0].CreatorUsername)
	}
}
