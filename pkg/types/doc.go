// Package types provides the result shapes and domain errors of the haru search API.
//
// Every search operation returns plain data structures from this package; no
// storage row type ever crosses the package boundary. Optional fields are
// pointers so that JSON encoding preserves the difference between an empty
// string and an absent value.
//
// # Result Shapes
//
//	CompanionResult   id, name, description?, imageUrl?, isPublic, creator, tags
//	UserResult        id, username?, displayName?, bio?, imageUrl?
//	MessageResult     id, content, createdAt, chat{id, title?, companion{name, imageUrl?}}
//	CheckpointResult  id, title, description?, usageCount, isPublic, creator
//	ChatMessageResult id, content, createdAt, sender{id, username?, displayName?}
//	TagResult         id, name, description?, companionCount
//
// GlobalResults groups the four entity lists of a global search. The lists are
// independent: each one is ranked on its own and they are never merged.
//
// # Errors
//
// Only two conditions are reportable:
//
//	if errors.Is(err, types.ErrAccessDenied) {
//	    // caller named a chat it does not own
//	}
//	if errors.Is(err, types.ErrStoreFailure) {
//	    // chat-scoped search could not reach the store
//	}
//
// An empty query or an anonymous caller is never an error; it yields empty lists.
package types
