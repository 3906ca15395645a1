package cmd

import (
	"github.com/spf13/cobra"

	"github.com/alexander-stage-hoco/caldera-sot/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Caldera MCP server",
	Long:  `Launch an MCP server that allows AI agents to query landing zone contents via standard tools.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		return mcp.StartMCPServer(rootCtx, session)
	},
}
