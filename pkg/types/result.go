package types

import "time"

// Creator is the public profile summary of the user who owns a companion or checkpoint
type Creator struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
}

// TagRef is an (id, name) pair attached to a companion result
type TagRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanionResult is a companion matched by text, description or tag name
type CompanionResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
	IsPublic    bool     `json:"isPublic"`
	Creator     Creator  `json:"creator"`
	Tags        []TagRef `json:"tags"`
}

// UserResult is a user profile matched by username, display name or bio
type UserResult struct {
	ID          string  `json:"id"`
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	ImageURL    *string `json:"imageUrl"`
}

// MessageCompanion is the companion presented next to a message hit
type MessageCompanion struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// MessageChat is the parent chat of a message hit
type MessageChat struct {
	ID        string           `json:"id"`
	Title     *string          `json:"title"`
	Companion MessageCompanion `json:"companion"`
}

// MessageResult is a message from one of the caller's chats
type MessageResult struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	Chat      MessageChat `json:"chat"`
}

// CheckpointResult is a saved conversation snapshot
type CheckpointResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UsageCount  int     `json:"usageCount"`
	IsPublic    bool    `json:"isPublic"`
	Creator     Creator `json:"creator"`
}

// Sender identifies who wrote a message inside a chat
type Sender struct {
	ID          string  `json:"id"`
	Username    *string `json:"username"`
	DisplayName *string `json:"displayName"`
}

// ChatMessageResult is a message hit inside a single chat
type ChatMessageResult struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    Sender    `json:"sender"`
}

// TagResult is a catalog tag annotated with how many companions carry it
type TagResult struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	CompanionCount int     `json:"companionCount"`
}

// GlobalResults holds the four independent result lists of a global search.
// The lists are never merged; each keeps its own ranking.
type GlobalResults struct {
	Companions  []CompanionResult  `json:"companions"`
	Users       []UserResult       `json:"users"`
	Messages    []MessageResult    `json:"messages"`
	Checkpoints []CheckpointResult `json:"checkpoints"`
}

// EmptyGlobalResults returns a response whose four lists are empty but non-nil,
// so they encode as [] rather than null.
func EmptyGlobalResults() GlobalResults {
	return GlobalResults{
		Companions:  []CompanionResult{},
		Users:       []UserResult{},
		Messages:    []MessageResult{},
		Checkpoints: []CheckpointResult{},
	}
}

// HistoryEntry is one remembered query of a caller
type HistoryEntry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// Clone returns a deep copy so cached responses cannot be mutated by callers
func (g GlobalResults) Clone() GlobalResults {
	out := GlobalResults{
		Companions:  make([]CompanionResult, len(g.Companions)),
		Users:       make([]UserResult, len(g.Users)),
		Messages:    make([]MessageResult, len(g.Messages)),
		Checkpoints: make([]CheckpointResult, len(g.Checkpoints)),
	}

	// Pointer fields point at immutable strings, so copying the structs is enough;
	// only the tag slices need their own backing arrays.
	for i, c := range g.Companions {
		c.Tags = append([]TagRef(nil), c.Tags...)
		if c.Tags == nil {
			c.Tags = []TagRef{}
		}
		out.Companions[i] = c
	}
	copy(out.Users, g.Users)
	copy(out.Messages, g.Messages)
	copy(out.Checkpoints, g.Checkpoints)

	return out
}
