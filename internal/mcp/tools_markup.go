package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerMarkupTools() {
	s.mcp.AddTool(mcp.NewTool("get_markup",
		mcp.WithDescription("Return the HTML markup and CSS stylesheet projection of a screen"),
		mcp.WithString("screenId", mcp.Description("Screen ID (optional, defaults to the current screen)")),
	), s.handleGetMarkup)

	s.mcp.AddTool(mcp.NewTool("apply_markup",
		mcp.WithDescription("Apply an edited markup/stylesheet projection back to the document as one undo step. "+
			"Elements are matched by id; unknown ids and unsupported tags are ignored."),
		mcp.WithString("markup", mcp.Description("Edited HTML markup"), mcp.Required()),
		mcp.WithString("stylesheet", mcp.Description("Edited CSS stylesheet")),
	), s.handleApplyMarkup)
}

func (s *Server) handleGetMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	proj, err := s.engine.Markup(req.GetString("screenId", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(proj)
}

func (s *Server) handleApplyMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markup, err := requireString(req, "markup")
	if err != nil {
		return nil, err
	}
	n := s.engine.ApplyMarkup(ctx, markup, req.GetString("stylesheet", ""))
	return textResult(fmt.Sprintf("Changed %d element(s)", n)), nil
}
