// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/template"
	"github.com/witnessreport/witness-report/internal/tool"
)

func newServeCommand(root *rootOptions, version string) *cobra.Command {
	var templatesDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := template.NewStore(templatesDir, root.logger)
			if err != nil {
				return err
			}
			server := tool.NewServer(tool.NewHandlers(store, root.logger, nil), version)
			root.logger.Info("serving MCP tools on stdio", "templates", store.Dir())
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "where built-in templates are extracted")
	return cmd
}
