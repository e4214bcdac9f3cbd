package storage

import (
	"context"
	"time"
)

// Storage defines the interface for the relational store behind search.
// Search paths only read; the write paths exist for the collaborators that own
// the data and for test fixtures.
type Storage interface {
	Reader
	Writer

	// Search history operations
	AddSearchHistory(ctx context.Context, record *HistoryRecord, keep int) error
	ListSearchHistory(ctx context.Context, userID string, limit int) ([]*HistoryRecord, error)
	DeleteSearchHistory(ctx context.Context, userID, query string) error
	DeleteSearchHistoryByID(ctx context.Context, userID, id string) error
	ClearSearchHistory(ctx context.Context, userID string) error

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Reader holds the relevance-ranked, visibility-filtered queries
type Reader interface {
	// Companion operations. Rows are flattened (one row per companion/tag pair).
	SearchCompanions(ctx context.Context, query string, visibility OwnerOrPublic, limit int) ([]CompanionRow, error)
	CompanionsByTag(ctx context.Context, tagName string, visibility OwnerOrPublic, limit int) ([]CompanionRow, error)

	// User operations
	SearchUsers(ctx context.Context, query string, excludeUserID string, limit int) ([]UserRow, error)

	// Message operations
	SearchMessages(ctx context.Context, query string, ownerID string, limit int) ([]MessageRow, error)
	SearchChatMessages(ctx context.Context, chatID string, query string, limit int) ([]ChatMessageRow, error)

	// Checkpoint operations
	SearchCheckpoints(ctx context.Context, query string, visibility OwnerOrPublic, limit int) ([]CheckpointRow, error)

	// Chat operations
	GetChat(ctx context.Context, chatID string) (*Chat, error)

	// Tag operations
	ListTags(ctx context.Context) ([]TagCount, error)
	SearchTags(ctx context.Context, substring string, limit int) ([]TagCount, error)
}

// Writer holds the mutations owned by collaborators outside search
type Writer interface {
	CreateUser(ctx context.Context, user *User) error
	CreateCompanion(ctx context.Context, companion *Companion) error
	UpdateCompanion(ctx context.Context, companion *Companion) error
	CreateTag(ctx context.Context, tag *Tag) error
	RenameTag(ctx context.Context, tagID, name string) error
	AttachTag(ctx context.Context, companionID, tagID string) error
	DetachTag(ctx context.Context, companionID, tagID string) error
	CreateChat(ctx context.Context, chat *Chat) error
	CreateMessage(ctx context.Context, message *Message) error
	SoftDeleteMessage(ctx context.Context, messageID string) error
	CreateCheckpoint(ctx context.Context, checkpoint *Checkpoint) error
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Writer // Embed Writer interface for transaction operations
}

// User is a profile record, distinct from the authenticated identity
type User struct {
	ID          string
	Username    *string // Nullable, unique
	DisplayName *string
	Bio         *string
	ImageURL    *string
	CreatedAt   time.Time
}

// Companion is an AI persona owned by its creator
type Companion struct {
	ID          string
	Name        string
	Description *string
	ImageURL    *string
	IsPublic    bool
	CreatorID   string
	CreatedAt   time.Time
}

// Tag is a global label; companions reference tags through companion_tags
type Tag struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}

// Chat is a conversation between one user and one companion
type Chat struct {
	ID          string
	Title       *string
	UserID      string
	CompanionID string
	CreatedAt   time.Time
}

// Message belongs to a chat. Soft-deleted messages have IsDeleted set and Content nulled.
type Message struct {
	ID        string
	Content   *string
	IsDeleted bool
	ChatID    string
	SenderID  string
	CreatedAt time.Time
}

// Checkpoint is a saved conversation snapshot
type Checkpoint struct {
	ID          string
	Title       string
	Description *string
	UsageCount  int
	IsPublic    bool
	CreatorID   string
	CreatedAt   time.Time
}

// HistoryRecord is one remembered query of a user
type HistoryRecord struct {
	ID        string
	UserID    string
	Query     string
	Category  string
	CreatedAt time.Time
}

// CompanionRow is one joined (companion, tag) row. TagID and TagName are nil
// when the companion has no tags.
type CompanionRow struct {
	ID                 string
	Name               string
	Description        *string
	ImageURL           *string
	IsPublic           bool
	CreatorID          string
	CreatorUsername    *string
	CreatorDisplayName *string
	CreatedAt          time.Time
	Score              float64
	TagID              *string
	TagName            *string
}

// UserRow is a ranked user match
type UserRow struct {
	ID          string
	Username    *string
	DisplayName *string
	Bio         *string
	ImageURL    *string
	Score       float64
}

// MessageRow is a ranked message match with its chat and companion denormalized
type MessageRow struct {
	ID                string
	Content           *string
	CreatedAt         time.Time
	ChatID            string
	ChatTitle         *string
	CompanionName     string
	CompanionImageURL *string
	Score             float64
}

// ChatMessageRow is a ranked match inside one chat
type ChatMessageRow struct {
	ID                string
	Content           *string
	CreatedAt         time.Time
	SenderID          string
	SenderUsername    *string
	SenderDisplayName *string
	Score             float64
}

// CheckpointRow is a ranked checkpoint match
type CheckpointRow struct {
	ID                 string
	Title              string
	Description        *string
	UsageCount         int
	IsPublic           bool
	CreatorID          string
	CreatorUsername    *string
	CreatorDisplayName *string
	Score              float64
}

// TagCount is a tag annotated with the number of companions bearing it
type TagCount struct {
	ID             string
	Name           string
	Description    *string
	CompanionCount int
}
