package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func callerProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Identity of the user the search runs on behalf of; empty means anonymous",
	}
}

func queryProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Free-text search query; punctuation is ignored",
	}
}

// globalSearchTool returns the tool definition for global_search
func globalSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "global_search",
		Description: "Search companions, users, messages and checkpoints in one call",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query":     queryProperty(),
				"caller_id": callerProperty(),
			},
			Required: []string{"query"},
		},
	}
}

// searchEntityTool returns the tool definition for search_entity
func searchEntityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_entity",
		Description: "Search a single entity type ranked by relevance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity type to search",
					"enum":        []string{entityCompanions, entityUsers, entityMessages, entityCheckpoints},
				},
				"query":     queryProperty(),
				"caller_id": callerProperty(),
			},
			Required: []string{"entity", "query"},
		},
	}
}

// searchWithinChatTool returns the tool definition for search_within_chat
func searchWithinChatTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_within_chat",
		Description: "Search the messages of one chat owned by the caller",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chat_id": map[string]interface{}{
					"type":        "string",
					"description": "Chat to search",
				},
				"query":     queryProperty(),
				"caller_id": callerProperty(),
			},
			Required: []string{"chat_id", "query", "caller_id"},
		},
	}
}

// listTagsTool returns the tool definition for list_tags
func listTagsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_tags",
		Description: "List every tag with the number of companions carrying it",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchTagsTool returns the tool definition for search_tags
func searchTagsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_tags",
		Description: "Find tags whose name contains the query, case-insensitively",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Substring to look for in tag names",
				},
			},
			Required: []string{"query"},
		},
	}
}

// companionsByTagTool returns the tool definition for search_companions_by_tag
func companionsByTagTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_companions_by_tag",
		Description: "List companions visible to the caller that carry the named tag, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tag": map[string]interface{}{
					"type":        "string",
					"description": "Exact tag name, matched case-insensitively",
				},
				"caller_id": callerProperty(),
			},
			Required: []string{"tag", "caller_id"},
		},
	}
}
