package storage

import "fmt"

// OwnerOrPublic is the visibility rule shared by companions and checkpoints:
// a row is visible to the caller iff it is public or the caller created it.
type OwnerOrPublic struct {
	CallerID string
}

// Clause renders the predicate for the table aliased as alias. The table must
// have is_public and creator_id columns.
func (v OwnerOrPublic) Clause(alias string) (string, []interface{}) {
	return fmt.Sprintf("(%[1]s.is_public = 1 OR %[1]s.creator_id = ?)", alias), []interface{}{v.CallerID}
}

// Allows evaluates the same rule in Go
func (v OwnerOrPublic) Allows(isPublic bool, creatorID string) bool {
	return isPublic || (v.CallerID != "" && creatorID == v.CallerID)
}
