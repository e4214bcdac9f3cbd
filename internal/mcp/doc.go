// Package mcp implements the Model Context Protocol (MCP) server for haru-search.
//
// The MCP server exposes the search engine to assistants as tools:
//   - global_search: companions, users, messages and checkpoints in one call
//   - search_entity: a single entity type
//   - search_within_chat: messages of one chat the caller owns
//   - list_tags and search_tags: the tag catalog
//   - search_companions_by_tag: companions carrying a tag
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started by the mcp command:
//
//	haru-search mcp
//
// # Caller Identity
//
// There is no session: each tool call names the user it acts for in
// caller_id. An empty caller_id is anonymous and sees no results from the
// user-scoped searches.
//
// # Tool: global_search
//
//	Request:
//	{
//	  "name": "global_search",
//	  "arguments": {"query": "romance", "caller_id": "8d1f..."}
//	}
//
//	Response:
//	{
//	  "companions": [{"id": "...", "name": "Kai", "tags": [{"id": "...", "name": "Romance"}]}],
//	  "users": [],
//	  "messages": [],
//	  "checkpoints": []
//	}
//
// A failing entity search yields an empty list for that entity only.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (storage failure on chat or tag queries)
//   - -32005: Rate limited; data carries retry_after_seconds
//   - -32006: Access denied to a chat
//
// # Logging
//
// stdout is reserved for the protocol, so the server logs to whatever
// slog handler it is given, normally one writing to stderr.
package mcp
