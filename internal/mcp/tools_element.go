package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
)

func elementTypeNames() []string {
	names := make([]string, len(domain.ElementTypes))
	for i, t := range domain.ElementTypes {
		names[i] = string(t)
	}
	return names
}

func (s *Server) registerElementTools() {
	// ── add_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add a default element to an enabled section and select it. Returns the new element id."),
		mcp.WithString("type", mcp.Description("Element type"), mcp.Enum(elementTypeNames()...), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Section: header, body or footer (defaults to body)")),
		mcp.WithString("screenId", mcp.Description("Screen ID (optional, defaults to the current screen)")),
	), s.handleAddElement)

	// ── update_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Update an element. Styles are merged key by key; an empty value removes the key."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New text content")),
		mcp.WithString("styles", mcp.Description(`Styles as a JSON object, e.g. {"color":"#ff0000"}`)),
		mcp.WithString("attributes", mcp.Description(`Attributes as a JSON object, e.g. {"href":"https://example.com"}`)),
	), s.handleUpdateElement)

	s.mcp.AddTool(mcp.NewTool("remove_element",
		mcp.WithDescription("Remove an element and its children. Undoable."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveElement)

	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element to the end of another section of its screen"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("sectionId", mcp.Description("Target section"), mcp.Required()),
	), s.handleMoveElement)

	s.mcp.AddTool(mcp.NewTool("reorder_element",
		mcp.WithDescription("Swap an element with its neighbour. Use up/down in column flows and left/right in row flows."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("direction", mcp.Enum(editor.DirUp, editor.DirDown, editor.DirLeft, editor.DirRight), mcp.Required()),
	), s.handleReorderElement)

	// ── selection ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_element",
		mcp.WithDescription("Click an element. Without multi the outermost container is selected; with multi a selected container drills down one level, otherwise the element toggles."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithBoolean("multi", mcp.Description("Multi-select gesture")),
	), s.handleSelectElement)

	s.mcp.AddTool(mcp.NewTool("select_section",
		mcp.WithDescription("Select a section of the current screen"),
		mcp.WithString("sectionId", mcp.Description("Section ID"), mcp.Required()),
	), s.handleSelectSection)

	s.mcp.AddTool(mcp.NewTool("clear_selection",
		mcp.WithDescription("Clear the selection"),
	), s.handleClearSelection)

	// ── grouping and clipboard ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("group_selected",
		mcp.WithDescription("Wrap two or more selected elements that share a parent in a new group"),
	), s.handleGroupSelected)

	s.mcp.AddTool(mcp.NewTool("ungroup",
		mcp.WithDescription("Dissolve a group, putting its children in its place"),
		mcp.WithString("groupId", mcp.Description("Group element ID"), mcp.Required()),
	), s.handleUngroup)

	s.mcp.AddTool(mcp.NewTool("copy_selected",
		mcp.WithDescription("Copy the selected elements to the clipboard"),
	), s.handleCopySelected)

	s.mcp.AddTool(mcp.NewTool("paste",
		mcp.WithDescription("Paste the clipboard into the current screen with fresh ids"),
		mcp.WithString("sectionId", mcp.Description("Target section (defaults to the section of the first copied element)")),
		mcp.WithString("groupId", mcp.Description("Target group (optional)")),
	), s.handlePaste)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t := domain.ElementType(req.GetString("type", ""))
	if !t.Valid() {
		return nil, fmt.Errorf("unknown element type %q", t)
	}
	section := req.GetString("sectionId", domain.SectionBody)
	id := s.engine.AddElement(t, section, req.GetString("screenId", ""))
	if id == "" {
		return nil, fmt.Errorf("cannot add %s to section %s (unknown screen or disabled section)", t, section)
	}
	return jsonResult(map[string]string{"elementId": id})
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	var patch editor.ElementPatch
	if content, ok := req.GetArguments()["content"].(string); ok {
		patch.Content = &content
	}
	styles, err := stringMap(req, "styles")
	if err != nil {
		return nil, err
	}
	if styles != nil {
		patch.MergeStyles = domain.Style(styles)
	}
	if patch.Attributes, err = stringMap(req, "attributes"); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, fmt.Errorf("nothing to update")
	}
	return s.changed(s.engine.UpdateElement(id, patch), "update "+id), nil
}

func (s *Server) handleRemoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.RemoveElement(id), "remove "+id), nil
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	section, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.MoveElement(id, section), "move "+id+" to "+section), nil
}

func (s *Server) handleReorderElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	dir := req.GetString("direction", "")
	return s.changed(s.engine.ReorderElement(id, dir), "move "+id+" "+dir), nil
}

func (s *Server) handleSelectElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "elementId")
	if err != nil {
		return nil, err
	}
	s.engine.SelectElement(id, req.GetBool("multi", false))
	return jsonResult(s.engine.Selection())
}

func (s *Server) handleSelectSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "sectionId")
	if err != nil {
		return nil, err
	}
	if !s.engine.SelectSection(id) {
		return nil, fmt.Errorf("section %s is unknown or disabled", id)
	}
	return jsonResult(s.engine.Selection())
}

func (s *Server) handleClearSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.engine.ClearSelection()
	return textResult("Selection cleared"), nil
}

func (s *Server) handleGroupSelected(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.engine.GroupSelectedElements()
	if id == "" {
		return nil, fmt.Errorf("select at least two elements that share a parent")
	}
	return jsonResult(map[string]string{"groupId": id})
}

func (s *Server) handleUngroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "groupId")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.UngroupElements(id), "ungroup "+id), nil
}

func (s *Server) handleCopySelected(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.engine.CopySelectedElements()
	return textResult(fmt.Sprintf("Copied %d element(s)", n)), nil
}

func (s *Server) handlePaste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := s.engine.PasteElements(req.GetString("sectionId", ""), req.GetString("groupId", ""))
	if len(ids) == 0 {
		return nil, fmt.Errorf("nothing pasted (empty clipboard or invalid target)")
	}
	return textResult("Pasted " + strings.Join(ids, ", ")), nil
}
