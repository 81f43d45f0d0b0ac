// SPDX-License-Identifier: Apache-2.0

// Package tool exposes report generation as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "witness-report"

// NewServer returns an MCP server with every report tool registered.
func NewServer(h *Handlers, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(server, MetadataGenerateReport, h.GenerateReport)
	mcp.AddTool(server, MetadataLocateHeading, h.LocateHeading)
	mcp.AddTool(server, MetadataListTemplates, h.ListTemplates)
	return server
}
