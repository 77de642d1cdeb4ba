// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/gemaraproj/multiline-loader/internal/config"
	"github.com/gemaraproj/multiline-loader/internal/logging"
	"github.com/gemaraproj/multiline-loader/internal/tool"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction tools over MCP on stdio",
		Long: `Starts an MCP server over stdin/stdout exposing extract_log_records and
count_log_records. Log types from --config can be named by the tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logging.New("mcp").Info("starting MCP server over stdio", "log_types", cfg.Names())
			return tool.NewServer(cfg, version).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
