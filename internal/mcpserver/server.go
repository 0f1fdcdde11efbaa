// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes layout synchronization tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/layoutsync/internal/layout"
	"github.com/starford/layoutsync/internal/region"
	"github.com/starford/layoutsync/internal/storage"
)

// MarkersURI identifies the marker contract resource.
const MarkersURI = "layoutsync://markers"

// Server wraps the MCP server with layoutsync tools.
type Server struct {
	mcp   *server.MCPServer
	sync  *layout.Synchronizer
	store storage.Provider
}

// New creates a new MCP server with all layoutsync tools registered.
func New(sync *layout.Synchronizer, store storage.Provider) *Server {
	s := &Server{sync: sync, store: store}

	s.mcp = server.NewMCPServer(
		"layoutsync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_layout",
		mcp.WithDescription("Copy the shared NAV and SIDEBAR regions from the template into every target page. "+
			"Only pages whose content changes are rewritten. Returns a JSON report."),
	), s.syncLayout)

	s.mcp.AddTool(mcp.NewTool("check_layout",
		mcp.WithDescription("Report which target pages differ from the template without writing anything. "+
			"Drifted pages include a unified diff."),
	), s.checkLayout)

	s.mcp.AddTool(mcp.NewTool("list_regions",
		mcp.WithDescription("List the shared regions with their start and end markers."),
	), s.listRegions)

	s.mcp.AddTool(mcp.NewTool("read_region",
		mcp.WithDescription("Return the marked block of one region, markers included."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Region name, e.g. NAV or SIDEBAR")),
		mcp.WithString("path", mcp.Description("Page to read from (defaults to the template)")),
	), s.readRegion)

	s.mcp.AddResource(
		mcp.NewResource(MarkersURI, "Shared Layout Markers",
			mcp.WithResourceDescription("How pages must mark the regions that layoutsync maintains."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkersResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.sync.Sync()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.sync.Check()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRegions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.sync.Plan().Regions, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRegion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan := s.sync.Plan()
	path := req.GetString("path", plan.Template)

	r, ok := findRegion(plan.Regions, name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown region: %s", name)), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	block, err := r.Extract(path, string(data))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(block), nil
}

func (s *Server) readMarkersResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MarkersURI,
			MIMEType: "text/markdown",
			Text:     MarkerContract(s.sync.Plan()),
		},
	}, nil
}

func findRegion(regions []region.Region, name string) (region.Region, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return region.Region{}, false
}
