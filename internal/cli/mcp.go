package cli

import (
	"github.com/spf13/cobra"

	"github.com/aita/migi/internal/mcpserver"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve schema tools over the Model Context Protocol",
		Long: `Starts an MCP server on stdin/stdout exposing two tools:

  inspect_schema  parse DDL and return the YAML snapshot of the model
  diff_schemas    diff two DDL scripts and return the migration SQL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.Serve()
		},
	}
}
