package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
)

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Server) registerStyleTools() {
	// ── themes ─────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_theme",
		mcp.WithDescription("Activate a theme preset by id (e.g. light, dark). Elements keep their styles until apply_theme."),
		mcp.WithString("themeId", mcp.Description("Theme ID"), mcp.Required()),
	), s.handleSetActiveTheme)

	s.mcp.AddTool(mcp.NewTool("apply_theme",
		mcp.WithDescription("Re-apply the active theme to elements"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs (optional, defaults to all)")),
		mcp.WithBoolean("resetAll", mcp.Description("Drop style classes and styles the theme does not set")),
		mcp.WithBoolean("preserveOverrides", mcp.Description("Keep values set by hand")),
	), s.handleApplyTheme)

	// ── style classes ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_style_class",
		mcp.WithDescription("Create a reusable style class for one element type"),
		mcp.WithString("name", mcp.Description("Class name"), mcp.Required()),
		mcp.WithString("elementType", mcp.Enum(elementTypeNames()...), mcp.Required()),
		mcp.WithString("styles", mcp.Description("Styles as a JSON object"), mcp.Required()),
	), s.handleAddStyleClass)

	s.mcp.AddTool(mcp.NewTool("update_style_class",
		mcp.WithDescription("Replace the styles of a style class; elements using it follow"),
		mcp.WithString("classId", mcp.Description("Style class ID"), mcp.Required()),
		mcp.WithString("styles", mcp.Description("Styles as a JSON object"), mcp.Required()),
	), s.handleUpdateStyleClass)

	s.mcp.AddTool(mcp.NewTool("apply_style_class",
		mcp.WithDescription("Apply a style class to elements of its type"),
		mcp.WithString("classId", mcp.Description("Style class ID"), mcp.Required()),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
	), s.handleApplyStyleClass)

	s.mcp.AddTool(mcp.NewTool("remove_style_class",
		mcp.WithDescription("Detach the style class from elements"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
	), s.handleRemoveStyleClass)

	s.mcp.AddTool(mcp.NewTool("delete_style_class",
		mcp.WithDescription("Delete a style class and clear references to it"),
		mcp.WithString("classId", mcp.Description("Style class ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteStyleClass)
}

func (s *Server) handleSetActiveTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "themeId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.SetActiveTheme(id), "activate theme "+id), nil
}

func (s *Server) handleApplyTheme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := editor.ThemeOptions{
		ElementIDs:        splitIDs(req.GetString("elementIds", "")),
		ResetAll:          req.GetBool("resetAll", false),
		PreserveOverrides: req.GetBool("preserveOverrides", false),
	}
	return s.changed(s.engine.ApplyThemeToElements(opts), "apply theme"), nil
}

func (s *Server) handleAddStyleClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	t := domain.ElementType(req.GetString("elementType", ""))
	if !t.Valid() {
		return nil, fmt.Errorf("unknown element type %q", t)
	}
	styles, err := stringMap(req, "styles")
	if err != nil {
		return nil, err
	}
	id := s.engine.AddStyleClass(name, t, domain.Style(styles))
	if id == "" {
		return nil, fmt.Errorf("add style class failed")
	}
	return jsonResult(map[string]string{"classId": id})
}

func (s *Server) handleUpdateStyleClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "classId")
	if err != nil {
		return nil, err
	}
	styles, err := stringMap(req, "styles")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.UpdateStyleClass(id, domain.Style(styles)), "update class "+id), nil
}

func (s *Server) handleApplyStyleClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "classId")
	if err != nil {
		return nil, err
	}
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}
	return s.changed(s.engine.ApplyStyleClass(ids, id), "apply class "+id), nil
}

func (s *Server) handleRemoveStyleClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("elementIds", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}
	return s.changed(s.engine.RemoveStyleClass(ids), "remove class"), nil
}

func (s *Server) handleDeleteStyleClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "classId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.DeleteStyleClass(id), "delete class "+id), nil
}
