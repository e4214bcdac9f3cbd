package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/haru-search/internal/mcp"
)

func newMCPCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server for assistant integration.

The server speaks JSON-RPC on stdin/stdout; logs go to stderr. Example
client configuration:

  {
    "mcpServers": {
      "haru-search": {
        "command": "/path/to/haru-search",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			srv, err := mcp.NewServer(a.searcher, a.limiter, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("mcp server ready, listening on stdio", "version", version)
			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			a.logger.Info("mcp server stopped")
			return err
		},
	}
}
