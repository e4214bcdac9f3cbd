package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Users table (profile records)
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE,
    display_name TEXT,
    bio TEXT,
    image_url TEXT,
    created_at TIMESTAMP NOT NULL
);

-- Companions table
CREATE TABLE IF NOT EXISTS companions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    image_url TEXT,
    is_public BOOLEAN NOT NULL DEFAULT 0,
    creator_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (creator_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_companions_creator ON companions(creator_id);
CREATE INDEX IF NOT EXISTS idx_companions_public ON companions(is_public);

-- Tags table
CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tags_name_nocase ON tags(name COLLATE NOCASE);

-- Companion/tag many-to-many join
CREATE TABLE IF NOT EXISTS companion_tags (
    companion_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    PRIMARY KEY (companion_id, tag_id),
    FOREIGN KEY (companion_id) REFERENCES companions(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_companion_tags_tag ON companion_tags(tag_id);

-- Chats table
CREATE TABLE IF NOT EXISTS chats (
    id TEXT PRIMARY KEY,
    title TEXT,
    user_id TEXT NOT NULL,
    companion_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (companion_id) REFERENCES companions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id);

-- Messages table. sender_id is not a foreign key: companions send messages too.
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    content TEXT,
    is_deleted BOOLEAN NOT NULL DEFAULT 0,
    chat_id TEXT NOT NULL,
    sender_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);

-- Checkpoints table
CREATE TABLE IF NOT EXISTS chat_checkpoints (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT,
    usage_count INTEGER NOT NULL DEFAULT 0,
    is_public BOOLEAN NOT NULL DEFAULT 0,
    creator_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY (creator_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_creator ON chat_checkpoints(creator_id);

-- Search history (bounded per user by the application)
CREATE TABLE IF NOT EXISTS search_history (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    query TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_history_user ON search_history(user_id, created_at);

-- Full-text search on users
CREATE VIRTUAL TABLE IF NOT EXISTS users_fts USING fts5(
    username, display_name, bio,
    tokenize = 'porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS users_ai AFTER INSERT ON users BEGIN
    INSERT INTO users_fts(rowid, username, display_name, bio)
    VALUES (new.rowid, COALESCE(new.username, ''), COALESCE(new.display_name, ''), COALESCE(new.bio, ''));
END;

CREATE TRIGGER IF NOT EXISTS users_ad AFTER DELETE ON users BEGIN
    DELETE FROM users_fts WHERE rowid = old.rowid;
END;

CREATE TRIGGER IF NOT EXISTS users_au AFTER UPDATE ON users BEGIN
    UPDATE users_fts SET
        username = COALESCE(new.username, ''),
        display_name = COALESCE(new.display_name, ''),
        bio = COALESCE(new.bio, '')
    WHERE rowid = new.rowid;
END;

-- Full-text search on companions. The tags column folds the names of all
-- associated tags into the companion document.
CREATE VIRTUAL TABLE IF NOT EXISTS companions_fts USING fts5(
    name, description, tags,
    tokenize = 'porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS companions_ai AFTER INSERT ON companions BEGIN
    INSERT INTO companions_fts(rowid, name, description, tags)
    VALUES (new.rowid, new.name, COALESCE(new.description, ''), '');
END;

CREATE TRIGGER IF NOT EXISTS companions_ad AFTER DELETE ON companions BEGIN
    DELETE FROM companions_fts WHERE rowid = old.rowid;
END;

CREATE TRIGGER IF NOT EXISTS companions_au AFTER UPDATE OF name, description ON companions BEGIN
    UPDATE companions_fts SET
        name = new.name,
        description = COALESCE(new.description, '')
    WHERE rowid = new.rowid;
END;

CREATE TRIGGER IF NOT EXISTS companion_tags_ai AFTER INSERT ON companion_tags BEGIN
    UPDATE companions_fts SET tags = (
        SELECT COALESCE(group_concat(t.name, ' '), '')
        FROM companion_tags ct
        JOIN tags t ON t.id = ct.tag_id
        WHERE ct.companion_id = new.companion_id
    )
    WHERE rowid = (SELECT rowid FROM companions WHERE id = new.companion_id);
END;

CREATE TRIGGER IF NOT EXISTS companion_tags_ad AFTER DELETE ON companion_tags BEGIN
    UPDATE companions_fts SET tags = (
        SELECT COALESCE(group_concat(t.name, ' '), '')
        FROM companion_tags ct
        JOIN tags t ON t.id = ct.tag_id
        WHERE ct.companion_id = old.companion_id
    )
    WHERE rowid = (SELECT rowid FROM companions WHERE id = old.companion_id);
END;

CREATE TRIGGER IF NOT EXISTS tags_au AFTER UPDATE OF name ON tags BEGIN
    UPDATE companions_fts SET tags = (
        SELECT COALESCE(group_concat(t.name, ' '), '')
        FROM companions c
        JOIN companion_tags ct ON ct.companion_id = c.id
        JOIN tags t ON t.id = ct.tag_id
        WHERE c.rowid = companions_fts.rowid
    )
    WHERE rowid IN (
        SELECT c.rowid
        FROM companions c
        JOIN companion_tags ct ON ct.companion_id = c.id
        WHERE ct.tag_id = new.id
    );
END;

-- Full-text search on messages
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    tokenize = 'porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, COALESCE(new.content, ''));
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    DELETE FROM messages_fts WHERE rowid = old.rowid;
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE OF content ON messages BEGIN
    UPDATE messages_fts SET content = COALESCE(new.content, '') WHERE rowid = new.rowid;
END;

-- Full-text search on checkpoints
CREATE VIRTUAL TABLE IF NOT EXISTS checkpoints_fts USING fts5(
    title, description,
    tokenize = 'porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS checkpoints_ai AFTER INSERT ON chat_checkpoints BEGIN
    INSERT INTO checkpoints_fts(rowid, title, description)
    VALUES (new.rowid, new.title, COALESCE(new.description, ''));
END;

CREATE TRIGGER IF NOT EXISTS checkpoints_ad AFTER DELETE ON chat_checkpoints BEGIN
    DELETE FROM checkpoints_fts WHERE rowid = old.rowid;
END;

CREATE TRIGGER IF NOT EXISTS checkpoints_au AFTER UPDATE OF title, description ON chat_checkpoints BEGIN
    UPDATE checkpoints_fts SET
        title = new.title,
        description = COALESCE(new.description, '')
    WHERE rowid = new.rowid;
END;
`

const migrationV1Down = `
-- Drop all tables in reverse order of dependencies.
-- schema_version stays so the rollback can be recorded.
DROP TRIGGER IF EXISTS checkpoints_au;
DROP TRIGGER IF EXISTS checkpoints_ad;
DROP TRIGGER IF EXISTS checkpoints_ai;
DROP TRIGGER IF EXISTS messages_au;
DROP TRIGGER IF EXISTS messages_ad;
DROP TRIGGER IF EXISTS messages_ai;
DROP TRIGGER IF EXISTS tags_au;
DROP TRIGGER IF EXISTS companion_tags_ad;
DROP TRIGGER IF EXISTS companion_tags_ai;
DROP TRIGGER IF EXISTS companions_au;
DROP TRIGGER IF EXISTS companions_ad;
DROP TRIGGER IF EXISTS companions_ai;
DROP TRIGGER IF EXISTS users_au;
DROP TRIGGER IF EXISTS users_ad;
DROP TRIGGER IF EXISTS users_ai;

DROP TABLE IF EXISTS checkpoints_fts;
DROP TABLE IF EXISTS messages_fts;
DROP TABLE IF EXISTS companions_fts;
DROP TABLE IF EXISTS users_fts;
DROP TABLE IF EXISTS search_history;
DROP TABLE IF EXISTS chat_checkpoints;
DROP TABLE IF EXISTS messages;
DROP TABLE IF EXISTS chats;
DROP TABLE IF EXISTS companion_tags;
DROP TABLE IF EXISTS tags;
DROP TABLE IF EXISTS companions;
DROP TABLE IF EXISTS users;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	// Parse current version (default to 0.0.0 if no migrations applied or table doesn't exist)
	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		// schema_version table doesn't exist, start from 0.0.0
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		// Table exists, check current version
		var currentVersionStr string
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	// Run migrations in order
	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		// Skip if already applied (LessThanOrEqual means current >= migration)
		if !currentVersion.LessThan(migrationVersion) {
			continue // Already applied
		}

		// Execute migration
		_, err = db.ExecContext(ctx, migration.Up)
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		// Record migration
		_, err = db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		// Update current version for next iteration
		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	// Get current version
	var currentVersion string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	// Find migration
	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	// Execute rollback
	_, err = db.ExecContext(ctx, migration.Down)
	if err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	// Remove version record
	_, err = db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion)
	if err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", currentVersion, err)
	}

	return nil
}
