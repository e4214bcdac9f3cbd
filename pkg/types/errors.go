package types

import "errors"

// Domain errors surfaced by the search API
var (
	// ErrAccessDenied is returned when a caller addresses a chat it does not own
	ErrAccessDenied = errors.New("access denied")

	// ErrStoreFailure wraps query execution errors on paths that cannot degrade to an empty result
	ErrStoreFailure = errors.New("store failure")
)
