package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SearchCompanions ranks visible companions against name, description and folded tag names.
// The limit applies to companions, not to the flattened rows: ranking happens in a
// materialized CTE and the tag join fans its rows out afterwards.
func (s *SQLiteStorage) SearchCompanions(ctx context.Context, query string, visibility OwnerOrPublic, limit int) ([]CompanionRow, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []CompanionRow{}, nil
	}

	where, whereArgs := visibility.Clause("c")
	sqlQuery := fmt.Sprintf(`
		WITH ranked AS MATERIALIZED (
			SELECT c.id, c.name, c.description, c.image_url, c.is_public, c.creator_id,
			       c.created_at, c.rowid AS seq, -bm25(companions_fts) AS score
			FROM companions_fts
			JOIN companions c ON c.rowid = companions_fts.rowid
			WHERE companions_fts MATCH ? AND %s
			ORDER BY score DESC, seq ASC
			LIMIT ?
		)
		SELECT r.id, r.name, r.description, r.image_url, r.is_public, r.creator_id,
		       u.username, u.display_name, r.created_at, r.score, t.id, t.name
		FROM ranked r
		LEFT JOIN users u ON u.id = r.creator_id
		LEFT JOIN companion_tags ct ON ct.companion_id = r.id
		LEFT JOIN tags t ON t.id = ct.tag_id
		ORDER BY r.score DESC, r.seq ASC, t.name ASC
	`, where)

	args := append([]interface{}{match}, whereArgs...)
	args = append(args, limit)
	return s.queryCompanionRows(ctx, sqlQuery, args...)
}

// CompanionsByTag returns visible companions bearing the named tag (case-insensitive), newest first
func (s *SQLiteStorage) CompanionsByTag(ctx context.Context, tagName string, visibility OwnerOrPublic, limit int) ([]CompanionRow, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" || limit <= 0 {
		return []CompanionRow{}, nil
	}

	where, whereArgs := visibility.Clause("c")
	sqlQuery := fmt.Sprintf(`
		WITH ranked AS MATERIALIZED (
			SELECT c.id, c.name, c.description, c.image_url, c.is_public, c.creator_id,
			       c.created_at, c.rowid AS seq, 0.0 AS score
			FROM companions c
			WHERE EXISTS (
				SELECT 1 FROM companion_tags ct
				JOIN tags t ON t.id = ct.tag_id
				WHERE ct.companion_id = c.id AND t.name = ? COLLATE NOCASE
			) AND %s
			ORDER BY c.created_at DESC, seq DESC
			LIMIT ?
		)
		SELECT r.id, r.name, r.description, r.image_url, r.is_public, r.creator_id,
		       u.username, u.display_name, r.created_at, r.score, t.id, t.name
		FROM ranked r
		LEFT JOIN users u ON u.id = r.creator_id
		LEFT JOIN companion_tags ct ON ct.companion_id = r.id
		LEFT JOIN tags t ON t.id = ct.tag_id
		ORDER BY r.created_at DESC, r.seq DESC, t.name ASC
	`, where)

	args := append([]interface{}{tagName}, whereArgs...)
	args = append(args, limit)
	return s.queryCompanionRows(ctx, sqlQuery, args...)
}

func (s *SQLiteStorage) queryCompanionRows(ctx context.Context, sqlQuery string, args ...interface{}) ([]CompanionRow, error) {
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search companions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []CompanionRow{}
	for rows.Next() {
		var row CompanionRow
		var description, imageURL, username, displayName, tagID, tagName sql.NullString
		var createdAt timestamp
		if err := rows.Scan(
			&row.ID, &row.Name, &description, &imageURL, &row.IsPublic, &row.CreatorID,
			&username, &displayName, &createdAt, &row.Score, &tagID, &tagName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan companion: %w", err)
		}
		row.Description = nullableString(description)
		row.ImageURL = nullableString(imageURL)
		row.CreatorUsername = nullableString(username)
		row.CreatorDisplayName = nullableString(displayName)
		row.CreatedAt = createdAt.Time
		row.TagID = nullableString(tagID)
		row.TagName = nullableString(tagName)
		result = append(result, row)
	}
	return result, rows.Err()
}

// SearchUsers ranks user profiles, never returning excludeUserID
func (s *SQLiteStorage) SearchUsers(ctx context.Context, query string, excludeUserID string, limit int) ([]UserRow, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []UserRow{}, nil
	}

	sqlQuery := `
		SELECT u.id, u.username, u.display_name, u.bio, u.image_url, -bm25(users_fts) AS score
		FROM users_fts
		JOIN users u ON u.rowid = users_fts.rowid
		WHERE users_fts MATCH ? AND u.id <> ?
		ORDER BY score DESC, u.rowid ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, match, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []UserRow{}
	for rows.Next() {
		var row UserRow
		var username, displayName, bio, imageURL sql.NullString
		if err := rows.Scan(&row.ID, &username, &displayName, &bio, &imageURL, &row.Score); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		row.Username = nullableString(username)
		row.DisplayName = nullableString(displayName)
		row.Bio = nullableString(bio)
		row.ImageURL = nullableString(imageURL)
		result = append(result, row)
	}
	return result, rows.Err()
}

// SearchMessages ranks live messages in chats owned by ownerID
func (s *SQLiteStorage) SearchMessages(ctx context.Context, query string, ownerID string, limit int) ([]MessageRow, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []MessageRow{}, nil
	}

	sqlQuery := `
		SELECT m.id, m.content, m.created_at, ch.id, ch.title, c.name, c.image_url,
		       -bm25(messages_fts) AS score
		FROM messages_fts
		JOIN messages m ON m.rowid = messages_fts.rowid
		JOIN chats ch ON ch.id = m.chat_id
		JOIN companions c ON c.id = ch.companion_id
		WHERE messages_fts MATCH ?
		  AND ch.user_id = ?
		  AND m.is_deleted = 0
		  AND m.content IS NOT NULL
		ORDER BY score DESC, m.created_at DESC, m.rowid ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, match, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []MessageRow{}
	for rows.Next() {
		var row MessageRow
		var content, chatTitle, companionImage sql.NullString
		var createdAt timestamp
		if err := rows.Scan(
			&row.ID, &content, &createdAt, &row.ChatID, &chatTitle,
			&row.CompanionName, &companionImage, &row.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		row.Content = nullableString(content)
		row.CreatedAt = createdAt.Time
		row.ChatTitle = nullableString(chatTitle)
		row.CompanionImageURL = nullableString(companionImage)
		result = append(result, row)
	}
	return result, rows.Err()
}

// SearchChatMessages ranks live messages of one chat. Ownership is checked by the caller.
func (s *SQLiteStorage) SearchChatMessages(ctx context.Context, chatID string, query string, limit int) ([]ChatMessageRow, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []ChatMessageRow{}, nil
	}

	sqlQuery := `
		SELECT m.id, m.content, m.created_at, m.sender_id, u.username, u.display_name,
		       -bm25(messages_fts) AS score
		FROM messages_fts
		JOIN messages m ON m.rowid = messages_fts.rowid
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE messages_fts MATCH ?
		  AND m.chat_id = ?
		  AND m.is_deleted = 0
		  AND m.content IS NOT NULL
		ORDER BY score DESC, m.created_at DESC, m.rowid ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, match, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []ChatMessageRow{}
	for rows.Next() {
		var row ChatMessageRow
		var content, username, displayName sql.NullString
		var createdAt timestamp
		if err := rows.Scan(
			&row.ID, &content, &createdAt, &row.SenderID, &username, &displayName, &row.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		row.Content = nullableString(content)
		row.CreatedAt = createdAt.Time
		row.SenderUsername = nullableString(username)
		row.SenderDisplayName = nullableString(displayName)
		result = append(result, row)
	}
	return result, rows.Err()
}

// SearchCheckpoints ranks visible checkpoints; equal scores fall back to usage count
func (s *SQLiteStorage) SearchCheckpoints(ctx context.Context, query string, visibility OwnerOrPublic, limit int) ([]CheckpointRow, error) {
	match := matchExpression(query)
	if match == "" || limit <= 0 {
		return []CheckpointRow{}, nil
	}

	where, whereArgs := visibility.Clause("cp")
	sqlQuery := fmt.Sprintf(`
		SELECT cp.id, cp.title, cp.description, cp.usage_count, cp.is_public, cp.creator_id,
		       u.username, u.display_name, -bm25(checkpoints_fts) AS score
		FROM checkpoints_fts
		JOIN chat_checkpoints cp ON cp.rowid = checkpoints_fts.rowid
		LEFT JOIN users u ON u.id = cp.creator_id
		WHERE checkpoints_fts MATCH ? AND %s
		ORDER BY score DESC, cp.usage_count DESC, cp.rowid ASC
		LIMIT ?
	`, where)

	args := append([]interface{}{match}, whereArgs...)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []CheckpointRow{}
	for rows.Next() {
		var row CheckpointRow
		var description, username, displayName sql.NullString
		if err := rows.Scan(
			&row.ID, &row.Title, &description, &row.UsageCount, &row.IsPublic, &row.CreatorID,
			&username, &displayName, &row.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		row.Description = nullableString(description)
		row.CreatorUsername = nullableString(username)
		row.CreatorDisplayName = nullableString(displayName)
		result = append(result, row)
	}
	return result, rows.Err()
}

// ListTags returns every tag with its companion count, alphabetical
func (s *SQLiteStorage) ListTags(ctx context.Context) ([]TagCount, error) {
	sqlQuery := `
		SELECT t.id, t.name, t.description, COUNT(ct.companion_id)
		FROM tags t
		LEFT JOIN companion_tags ct ON ct.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE ASC, t.name ASC
	`
	return s.queryTagCounts(ctx, sqlQuery)
}

// SearchTags returns tags whose name contains substring (case-insensitive), alphabetical
func (s *SQLiteStorage) SearchTags(ctx context.Context, substring string, limit int) ([]TagCount, error) {
	substring = strings.TrimSpace(substring)
	if substring == "" || limit <= 0 {
		return []TagCount{}, nil
	}

	// LIKE is case-insensitive for ASCII in SQLite
	sqlQuery := `
		SELECT t.id, t.name, t.description, COUNT(ct.companion_id)
		FROM tags t
		LEFT JOIN companion_tags ct ON ct.tag_id = t.id
		WHERE t.name LIKE ? ESCAPE '\'
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE ASC, t.name ASC
		LIMIT ?
	`
	return s.queryTagCounts(ctx, sqlQuery, containsPattern(substring), limit)
}

func (s *SQLiteStorage) queryTagCounts(ctx context.Context, sqlQuery string, args ...interface{}) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []TagCount{}
	for rows.Next() {
		var tag TagCount
		var description sql.NullString
		if err := rows.Scan(&tag.ID, &tag.Name, &description, &tag.CompanionCount); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tag.Description = nullableString(description)
		result = append(result, tag)
	}
	return result, rows.Err()
}
