package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/haru-search/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeRateLimited   = -32005 // Caller exceeded the search rate
	ErrorCodeAccessDenied  = -32006 // Caller may not read the requested chat
)

const (
	entityCompanions  = "companions"
	entityUsers       = "users"
	entityMessages    = "messages"
	entityCheckpoints = "checkpoints"
)

// handleGlobalSearch handles the global_search tool invocation
func (s *Server) handleGlobalSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}
	callerID := getStringDefault(args, "caller_id", "")

	if err := s.throttle(callerID); err != nil {
		return nil, err
	}

	results := s.searcher.GlobalSearch(ctx, query, callerID)
	return mcp.NewToolResultText(formatJSON(results)), nil
}

// handleSearchEntity handles the search_entity tool invocation
func (s *Server) handleSearchEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	entity := getStringDefault(args, "entity", "")
	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}
	callerID := getStringDefault(args, "caller_id", "")

	var search func() interface{}
	switch entity {
	case entityCompanions:
		search = func() interface{} { return s.searcher.SearchCompanions(ctx, query, callerID) }
	case entityUsers:
		search = func() interface{} { return s.searcher.SearchUsers(ctx, query, callerID) }
	case entityMessages:
		search = func() interface{} { return s.searcher.SearchMessages(ctx, query, callerID) }
	case entityCheckpoints:
		search = func() interface{} { return s.searcher.SearchCheckpoints(ctx, query, callerID) }
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid entity", map[string]interface{}{
			"param":   "entity",
			"allowed": []string{entityCompanions, entityUsers, entityMessages, entityCheckpoints},
		})
	}

	if err := s.throttle(callerID); err != nil {
		return nil, err
	}

	response := map[string]interface{}{
		"entity":  entity,
		"results": search(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchWithinChat handles the search_within_chat tool invocation
func (s *Server) handleSearchWithinChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	chatID, ok := args["chat_id"].(string)
	if !ok || chatID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "chat_id parameter is required", map[string]interface{}{
			"param":  "chat_id",
			"reason": "missing or empty",
		})
	}
	query := getStringDefault(args, "query", "")
	callerID := getStringDefault(args, "caller_id", "")

	if err := s.throttle(callerID); err != nil {
		return nil, err
	}

	results, err := s.searcher.SearchWithinChat(ctx, chatID, query, callerID)
	switch {
	case errors.Is(err, types.ErrAccessDenied):
		return nil, newMCPError(ErrorCodeAccessDenied, "access denied", map[string]interface{}{
			"chat_id": chatID,
		})
	case err != nil:
		s.logger.Error("chat search failed", "chat", chatID, "caller", callerID, "err", err)
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chat_id": chatID,
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListTags handles the list_tags tool invocation
func (s *Server) handleListTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.searcher.ListTags(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list tags", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"tags": tags})), nil
}

// handleSearchTags handles the search_tags tool invocation
func (s *Server) handleSearchTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	tags, err := s.searcher.SearchTags(ctx, getStringDefault(args, "query", ""))
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to search tags", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"tags": tags})), nil
}

// handleCompanionsByTag handles the search_companions_by_tag tool invocation
func (s *Server) handleCompanionsByTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	tag, ok := args["tag"].(string)
	if !ok || tag == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "tag parameter is required", map[string]interface{}{
			"param":  "tag",
			"reason": "missing or empty",
		})
	}
	callerID := getStringDefault(args, "caller_id", "")

	if err := s.throttle(callerID); err != nil {
		return nil, err
	}

	response := map[string]interface{}{
		"tag":        tag,
		"companions": s.searcher.SearchCompanionsByTag(ctx, tag, callerID),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// throttle charges one search against the caller's bucket
func (s *Server) throttle(callerID string) error {
	if s.limiter == nil || s.limiter.Allow(callerID) {
		return nil
	}
	retry := s.limiter.RetryAfter(callerID)
	return newMCPError(ErrorCodeRateLimited, "too many search requests", map[string]interface{}{
		"retry_after_seconds": int(math.Ceil(retry.Seconds())),
	})
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a response as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
