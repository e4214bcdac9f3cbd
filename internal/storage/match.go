package storage

import (
	"strings"
)

// matchExpression turns sanitized free text into an FTS5 MATCH expression.
// Each token becomes a quoted string, so FTS5 keywords (AND, OR, NOT, NEAR) and
// column filters are matched literally; tokens are joined with spaces, which
// FTS5 treats as an implicit AND of all terms.
// Returns "" when nothing searchable remains.
func matchExpression(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		// Embedded quotes would terminate the FTS5 string early
		field = strings.ReplaceAll(field, `"`, "")
		if field == "" {
			continue
		}
		terms = append(terms, `"`+field+`"`)
	}

	return strings.Join(terms, " ")
}

// likeEscaper escapes LIKE wildcards; used with ESCAPE '\'
var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// containsPattern builds a LIKE pattern matching any value containing s
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
