// ABOUTME: MCP server subcommand
// ABOUTME: Serves offertrack tools, resources, and prompts over stdio
package cli

import (
	"context"

	"github.com/harperreed/offertrack/handlers"
	"github.com/harperreed/offertrack/tracker"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, tr *tracker.Tracker, version string, log logrus.FieldLogger) error {
	log.WithField("version", version).Info("starting MCP server on stdio")

	server := handlers.NewServer(tr, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
