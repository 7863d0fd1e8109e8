// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for assistant integration
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/handlers"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, store, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			a.log.Info("starting orgmap MCP server")
			server := handlers.NewServer(svc, a.version)
			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
