package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"quizbuilder/internal/domain"
)

func (s *Server) registerScreenTools() {
	s.mcp.AddTool(mcp.NewTool("add_screen",
		mcp.WithDescription("Append an empty screen and make it current"),
		mcp.WithString("name", mcp.Description("Screen name (defaults to 'Screen N')")),
	), s.handleAddScreen)

	s.mcp.AddTool(mcp.NewTool("remove_screen",
		mcp.WithDescription("Remove a screen. The last screen cannot be removed. Undoable."),
		mcp.WithString("screenId", mcp.Description("Screen ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveScreen)

	s.mcp.AddTool(mcp.NewTool("rename_screen",
		mcp.WithDescription("Rename a screen"),
		mcp.WithString("screenId", mcp.Description("Screen ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameScreen)

	s.mcp.AddTool(mcp.NewTool("duplicate_screen",
		mcp.WithDescription("Insert a copy of a screen after it, with fresh element ids"),
		mcp.WithString("screenId", mcp.Description("Screen ID"), mcp.Required()),
	), s.handleDuplicateScreen)

	s.mcp.AddTool(mcp.NewTool("set_current_screen",
		mcp.WithDescription("Switch to another screen. Clears the selection."),
		mcp.WithString("screenId", mcp.Description("Screen ID"), mcp.Required()),
	), s.handleSetCurrentScreen)

	// ── sections ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_section_enabled",
		mcp.WithDescription("Enable or disable a section of a screen"),
		mcp.WithString("screenId", mcp.Description("Screen ID (optional, defaults to the current screen)")),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Enum(domain.SectionOrder...), mcp.Required()),
		mcp.WithBoolean("enabled", mcp.Description("Whether the section is shown"), mcp.Required()),
	), s.handleSetSectionEnabled)

	s.mcp.AddTool(mcp.NewTool("update_section_layout",
		mcp.WithDescription("Replace the flex layout of a section"),
		mcp.WithString("screenId", mcp.Description("Screen ID (optional, defaults to the current screen)")),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Enum(domain.SectionOrder...), mcp.Required()),
		mcp.WithString("layout", mcp.Description(`Layout JSON: {"direction","wrap","justify","alignItems","alignContent","gap"}`), mcp.Required()),
	), s.handleUpdateSectionLayout)

	s.mcp.AddTool(mcp.NewTool("update_section_styles",
		mcp.WithDescription("Replace the styles of a section"),
		mcp.WithString("screenId", mcp.Description("Screen ID (optional, defaults to the current screen)")),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Enum(domain.SectionOrder...), mcp.Required()),
		mcp.WithString("styles", mcp.Description(`Styles as a JSON object, e.g. {"backgroundColor":"#f3f4f6"}`), mcp.Required()),
	), s.handleUpdateSectionStyles)
}

func (s *Server) handleAddScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.engine.AddScreen(req.GetString("name", ""))
	if id == "" {
		return nil, fmt.Errorf("add screen failed")
	}
	return jsonResult(map[string]string{"screenId": id})
}

func (s *Server) handleRemoveScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "screenId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.RemoveScreen(id), "remove screen "+id), nil
}

func (s *Server) handleRenameScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "screenId")
	if err != nil {
		return nil, err
	}
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.RenameScreen(id, name), "rename screen "+id), nil
}

func (s *Server) handleDuplicateScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "screenId")
	if err != nil {
		return nil, err
	}
	cp := s.engine.DuplicateScreen(id)
	if cp == "" {
		return nil, fmt.Errorf("unknown screen %s", id)
	}
	return jsonResult(map[string]string{"screenId": cp})
}

func (s *Server) handleSetCurrentScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "screenId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.SetCurrentScreen(id), "switch to "+id), nil
}

func (s *Server) handleSetSectionEnabled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	enabled := req.GetBool("enabled", true)
	return s.changed(s.engine.SetSectionEnabled(req.GetString("screenId", ""), section, enabled), "toggle "+section), nil
}

func (s *Server) handleUpdateSectionLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	raw, err := requireString(req, "layout")
	if err != nil {
		return nil, err
	}
	var layout domain.Layout
	if err := json.Unmarshal([]byte(raw), &layout); err != nil {
		return nil, fmt.Errorf("layout must be a JSON object: %w", err)
	}
	return s.changed(s.engine.UpdateSectionLayout(req.GetString("screenId", ""), section, layout), "layout of "+section), nil
}

func (s *Server) handleUpdateSectionStyles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	styles, err := stringMap(req, "styles")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.UpdateSectionStyles(req.GetString("screenId", ""), section, domain.Style(styles)), "styles of "+section), nil
}
