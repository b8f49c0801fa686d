package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"reascribe/internal/index"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	idx       *index.DB
}

func NewServer(idx *index.DB) *Server {
	s := &Server{idx: idx}

	mcpServer := server.NewMCPServer(
		"reascribe",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("lookup_function",
			mcp.WithDescription("Look up one ReaScript API function by name and return its full documentation as markdown. Accepts a bare name (CountTracks) or a namespace-qualified one (reaper.CountTracks, gfx.blit)."),
			mcp.WithString("name",
				mcp.Description("Function name, optionally prefixed with its namespace"),
				mcp.Required(),
			),
		),
		s.handleLookupFunction,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_functions",
			mcp.WithDescription("Search the indexed ReaScript API by substring match over namespaces, function names, and descriptions. Results include reascript:// URIs that can be read as resources."),
			mcp.WithString("query",
				mcp.Description("Search query (function name fragment or keyword)"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchFunctions,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_namespaces",
			mcp.WithDescription("List the namespaces of the indexed ReaScript API with their function counts."),
		),
		s.handleListNamespaces,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"reascript://{namespace}/{function}",
			"ReaScript API function",
			mcp.WithTemplateDescription("Read the documentation of one ReaScript API function. Search results return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleLookupFunction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	entries, err := s.idx.Resolve(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no function named %q in the index; try search_functions, or run `reascribe index` to import the manual", name)), nil
	}

	docs := make([]string, len(entries))
	for i := range entries {
		docs[i] = EntryDoc(&entries[i])
	}
	return mcp.NewToolResultText(strings.Join(docs, "\n---\n\n")), nil
}

type searchResult struct {
	URI        string `json:"uri"`
	Signature  string `json:"signature"`
	Snippet    string `json:"snippet,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

func (s *Server) handleSearchFunctions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := 20
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	entries, err := s.idx.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}

	results := make([]searchResult, len(entries))
	for i, e := range entries {
		results[i] = searchResult{
			URI:        EntryURI(&e),
			Signature:  e.Signature,
			Snippet:    snippet(e.Description),
			Deprecated: e.Deprecated,
		}
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListNamespaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	namespaces, err := s.idx.Namespaces()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing namespaces failed: %v", err)), nil
	}
	if len(namespaces) == 0 {
		return mcp.NewToolResultError("the index is empty; run `reascribe index` to import the manual"), nil
	}

	var b strings.Builder
	for _, n := range namespaces {
		fmt.Fprintf(&b, "%s (%d functions)\n", n.Name, n.Entries)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "reascript://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	e, err := s.idx.Lookup(parts[0], parts[1])
	if err != nil {
		return nil, fmt.Errorf("looking up %s.%s: %w", parts[0], parts[1], err)
	}
	if e == nil {
		return nil, fmt.Errorf("no function %s.%s in the index", parts[0], parts[1])
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     EntryDoc(e),
		},
	}, nil
}

// snippet reduces a description to a single short line for search
// results.
func snippet(desc string) string {
	line := desc
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if r := []rune(line); len(r) > 120 {
		line = string(r[:120]) + "..."
	}
	return line
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
