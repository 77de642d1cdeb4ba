// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gemaraproj/multiline-loader/internal/config"
)

// NewServer returns an MCP server with the extraction tools registered.
func NewServer(cfg *config.Config, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mlextract", Version: version}, nil)
	tools := NewTools(cfg)
	mcp.AddTool(server, MetadataExtractLogRecords, tools.ExtractLogRecords)
	mcp.AddTool(server, MetadataCountLogRecords, tools.CountLogRecords)
	return server
}
