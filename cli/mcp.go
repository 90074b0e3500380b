// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, repo *db.Repository, log *zap.Logger) error {
	log.Info("starting prm MCP server", zap.String("version", handlers.Version))
	return handlers.NewServer(repo).Run(ctx, &mcp.StdioTransport{})
}
