package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// InMemoryDSN opens a private in-memory database (used by tests)
const InMemoryDSN = ":memory:"

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// Option configures a SQLiteStorage
type Option func(*options)

type options struct {
	maxOpenConns int
}

// WithMaxOpenConns sets the connection pool size. Ignored for in-memory databases,
// where every connection would otherwise see its own empty database.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string, o options) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so readers don't block on the writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	maxOpen := o.maxOpenConns
	if dbPath == InMemoryDSN || maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := openDatabase(dbPath, o)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// withTx runs fn inside a transaction, rolling back on error
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// prepareIdentity assigns a fresh ID and creation time when the caller left them empty.
// Times are stored in UTC so that their text encoding sorts chronologically.
func prepareIdentity(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
	*createdAt = createdAt.UTC()
}

// User operations

// createUserWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createUserWithQuerier(ctx context.Context, q querier, user *User) error {
	prepareIdentity(&user.ID, &user.CreatedAt)
	query := `
		INSERT INTO users (id, username, display_name, bio, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		user.ID, user.Username, user.DisplayName, user.Bio, user.ImageURL, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *User) error {
	return s.createUserWithQuerier(ctx, s.querier(), user)
}

// Companion operations

// createCompanionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createCompanionWithQuerier(ctx context.Context, q querier, companion *Companion) error {
	prepareIdentity(&companion.ID, &companion.CreatedAt)
	query := `
		INSERT INTO companions (id, name, description, image_url, is_public, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		companion.ID, companion.Name, companion.Description, companion.ImageURL,
		companion.IsPublic, companion.CreatorID, companion.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create companion: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateCompanion(ctx context.Context, companion *Companion) error {
	return s.createCompanionWithQuerier(ctx, s.querier(), companion)
}

// updateCompanionWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateCompanionWithQuerier(ctx context.Context, q querier, companion *Companion) error {
	query := `
		UPDATE companions
		SET name = ?, description = ?, image_url = ?, is_public = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		companion.Name, companion.Description, companion.ImageURL, companion.IsPublic, companion.ID)
	if err != nil {
		return fmt.Errorf("failed to update companion: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) UpdateCompanion(ctx context.Context, companion *Companion) error {
	return s.updateCompanionWithQuerier(ctx, s.querier(), companion)
}

// Tag operations

// createTagWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createTagWithQuerier(ctx context.Context, q querier, tag *Tag) error {
	prepareIdentity(&tag.ID, &tag.CreatedAt)
	query := `
		INSERT INTO tags (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query, tag.ID, tag.Name, tag.Description, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateTag(ctx context.Context, tag *Tag) error {
	return s.createTagWithQuerier(ctx, s.querier(), tag)
}

// renameTagWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) renameTagWithQuerier(ctx context.Context, q querier, tagID, name string) error {
	result, err := q.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, name, tagID)
	if err != nil {
		return fmt.Errorf("failed to rename tag: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) RenameTag(ctx context.Context, tagID, name string) error {
	return s.renameTagWithQuerier(ctx, s.querier(), tagID, name)
}

// attachTagWithQuerier is the internal implementation that uses a querier.
// Attaching an already attached tag is a no-op.
func (s *SQLiteStorage) attachTagWithQuerier(ctx context.Context, q querier, companionID, tagID string) error {
	query := `
		INSERT INTO companion_tags (companion_id, tag_id)
		VALUES (?, ?)
		ON CONFLICT(companion_id, tag_id) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, companionID, tagID); err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) AttachTag(ctx context.Context, companionID, tagID string) error {
	return s.attachTagWithQuerier(ctx, s.querier(), companionID, tagID)
}

// detachTagWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) detachTagWithQuerier(ctx context.Context, q querier, companionID, tagID string) error {
	query := `DELETE FROM companion_tags WHERE companion_id = ? AND tag_id = ?`
	if _, err := q.ExecContext(ctx, query, companionID, tagID); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DetachTag(ctx context.Context, companionID, tagID string) error {
	return s.detachTagWithQuerier(ctx, s.querier(), companionID, tagID)
}

// Chat operations

// createChatWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createChatWithQuerier(ctx context.Context, q querier, chat *Chat) error {
	prepareIdentity(&chat.ID, &chat.CreatedAt)
	query := `
		INSERT INTO chats (id, title, user_id, companion_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query, chat.ID, chat.Title, chat.UserID, chat.CompanionID, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateChat(ctx context.Context, chat *Chat) error {
	return s.createChatWithQuerier(ctx, s.querier(), chat)
}

// GetChat retrieves a chat by ID
func (s *SQLiteStorage) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	query := `
		SELECT id, title, user_id, companion_id, created_at
		FROM chats
		WHERE id = ?
	`
	var chat Chat
	var title sql.NullString
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&chat.ID, &title, &chat.UserID, &chat.CompanionID, &chat.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	chat.Title = nullableString(title)
	return &chat, nil
}

// Message operations

// createMessageWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createMessageWithQuerier(ctx context.Context, q querier, message *Message) error {
	prepareIdentity(&message.ID, &message.CreatedAt)
	query := `
		INSERT INTO messages (id, content, is_deleted, chat_id, sender_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		message.ID, message.Content, message.IsDeleted, message.ChatID, message.SenderID, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateMessage(ctx context.Context, message *Message) error {
	return s.createMessageWithQuerier(ctx, s.querier(), message)
}

// softDeleteMessageWithQuerier tombstones a message: the row stays, its content is dropped
func (s *SQLiteStorage) softDeleteMessageWithQuerier(ctx context.Context, q querier, messageID string) error {
	query := `UPDATE messages SET is_deleted = 1, content = NULL WHERE id = ?`
	result, err := q.ExecContext(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) SoftDeleteMessage(ctx context.Context, messageID string) error {
	return s.softDeleteMessageWithQuerier(ctx, s.querier(), messageID)
}

// Checkpoint operations

// createCheckpointWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createCheckpointWithQuerier(ctx context.Context, q querier, checkpoint *Checkpoint) error {
	prepareIdentity(&checkpoint.ID, &checkpoint.CreatedAt)
	query := `
		INSERT INTO chat_checkpoints (id, title, description, usage_count, is_public, creator_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		checkpoint.ID, checkpoint.Title, checkpoint.Description, checkpoint.UsageCount,
		checkpoint.IsPublic, checkpoint.CreatorID, checkpoint.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	return s.createCheckpointWithQuerier(ctx, s.querier(), checkpoint)
}

// Helper functions

// requireAffected maps "no row matched" to ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullableString converts a scanned NullString to an optional value
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// Transaction implementations - writes run on the transaction querier

func (t *sqliteTx) CreateUser(ctx context.Context, user *User) error {
	return t.storage.createUserWithQuerier(ctx, t.querier(), user)
}

func (t *sqliteTx) CreateCompanion(ctx context.Context, companion *Companion) error {
	return t.storage.createCompanionWithQuerier(ctx, t.querier(), companion)
}

func (t *sqliteTx) UpdateCompanion(ctx context.Context, companion *Companion) error {
	return t.storage.updateCompanionWithQuerier(ctx, t.querier(), companion)
}

func (t *sqliteTx) CreateTag(ctx context.Context, tag *Tag) error {
	return t.storage.createTagWithQuerier(ctx, t.querier(), tag)
}

func (t *sqliteTx) RenameTag(ctx context.Context, tagID, name string) error {
	return t.storage.renameTagWithQuerier(ctx, t.querier(), tagID, name)
}

func (t *sqliteTx) AttachTag(ctx context.Context, companionID, tagID string) error {
	return t.storage.attachTagWithQuerier(ctx, t.querier(), companionID, tagID)
}

func (t *sqliteTx) DetachTag(ctx context.Context, companionID, tagID string) error {
	return t.storage.detachTagWithQuerier(ctx, t.querier(), companionID, tagID)
}

func (t *sqliteTx) CreateChat(ctx context.Context, chat *Chat) error {
	return t.storage.createChatWithQuerier(ctx, t.querier(), chat)
}

func (t *sqliteTx) CreateMessage(ctx context.Context, message *Message) error {
	return t.storage.createMessageWithQuerier(ctx, t.querier(), message)
}

func (t *sqliteTx) SoftDeleteMessage(ctx context.Context, messageID string) error {
	return t.storage.softDeleteMessageWithQuerier(ctx, t.querier(), messageID)
}

func (t *sqliteTx) CreateCheckpoint(ctx context.Context, checkpoint *Checkpoint) error {
	return t.storage.createCheckpointWithQuerier(ctx, t.querier(), checkpoint)
}
