package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"quizbuilder/internal/service"
)

// Server is the MCP server of the quiz builder. It exposes the live engine
// as tools, resources and prompts so agents can edit quizzes.
type Server struct {
	mcp    *server.MCPServer
	engine *service.Engine
	docs   *service.DocumentService
	log    *zap.Logger
}

// Deps holds the services the MCP server drives.
type Deps struct {
	Engine    *service.Engine
	Documents *service.DocumentService
	Version   string
	Logger    *zap.Logger
}

// New creates and configures the MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{
		engine: deps.Engine,
		docs:   deps.Documents,
		log:    deps.Logger.Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"quizbuilder-mcp",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDocumentTools()
	s.registerElementTools()
	s.registerScreenTools()
	s.registerStyleTools()
	s.registerMarkupTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("Starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// changed reports the outcome of an engine mutation. Mutations that change
// nothing are not errors; the agent is told so.
func (s *Server) changed(ok bool, what string) *mcp.CallToolResult {
	if !ok {
		return textResult(fmt.Sprintf("No change: %s", what))
	}
	return textResult(fmt.Sprintf("Done: %s", what))
}

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// stringMap decodes an optional JSON object argument of string values.
func stringMap(req mcp.CallToolRequest, key string) (map[string]string, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%s must be a JSON object of strings: %w", key, err)
	}
	return m, nil
}

func boolPtr(b bool) *bool { return &b }
