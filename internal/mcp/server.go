package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/haru-search/internal/ratelimit"
	"github.com/dshills/haru-search/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "haru-search"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// ErrSearcherRequired is returned when NewServer is given no searcher
var ErrSearcherRequired = errors.New("searcher is required")

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// NewServer creates a new MCP server instance. limiter may be nil.
func NewServer(s *searcher.Searcher, limiter *ratelimit.Limiter, logger *slog.Logger) (*Server, error) {
	if s == nil {
		return nil, ErrSearcherRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		searcher: s,
		limiter:  limiter,
		logger:   logger,
	}
	srv.registerTools()

	return srv, nil
}

// Serve speaks MCP over the given streams until ctx is done or in closes.
// Logs must not go to out; it carries the protocol.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(globalSearchTool(), s.handleGlobalSearch)
	s.mcp.AddTool(searchEntityTool(), s.handleSearchEntity)
	s.mcp.AddTool(searchWithinChatTool(), s.handleSearchWithinChat)
	s.mcp.AddTool(listTagsTool(), s.handleListTags)
	s.mcp.AddTool(searchTagsTool(), s.handleSearchTags)
	s.mcp.AddTool(companionsByTagTool(), s.handleCompanionsByTag)
}
