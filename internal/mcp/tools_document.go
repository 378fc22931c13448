package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"quizbuilder/internal/domain"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List stored quiz documents, most recently edited first"),
	), s.handleListDocuments)

	// ── create_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new quiz document and open it"),
		mcp.WithString("name", mcp.Description("Name of the new document")),
	), s.handleCreateDocument)

	// ── open_document ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Open a stored document. Subsequent tools edit it."),
		mcp.WithString("documentId", mcp.Description("ID of the document"), mcp.Required()),
	), s.handleOpenDocument)

	s.mcp.AddTool(mcp.NewTool("rename_document",
		mcp.WithDescription("Rename the open document"),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameDocument)

	s.mcp.AddTool(mcp.NewTool("duplicate_document",
		mcp.WithDescription("Store a copy of a document under a new id"),
		mcp.WithString("documentId", mcp.Description("ID of the document to copy"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Name of the copy (defaults to '<name> (copy)')")),
	), s.handleDuplicateDocument)

	// ── get_document ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the open document as JSON, with the current selection"),
	), s.handleGetDocument)

	// ── history ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change to the open document"),
	), s.handleUndo)
	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)
	s.mcp.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("List undo and redo entries of the open document"),
	), s.handleGetHistory)
	s.mcp.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Commit and persist pending changes now"),
	), s.handleSave)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.docs.List(ctx)
	if list == nil {
		list = []domain.DocumentSummary{}
	}
	return jsonResult(list)
}

func (s *Server) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.docs.Create(ctx, req.GetString("name", ""))
	if doc == nil {
		return nil, fmt.Errorf("create document failed")
	}
	return jsonResult(domain.DocumentSummary{ID: doc.ID, Name: doc.Name, LastEdited: doc.LastEdited})
}

func (s *Server) handleOpenDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "documentId")
	if err != nil {
		return nil, err
	}
	if !s.docs.Open(ctx, id) {
		return nil, fmt.Errorf("document %s could not be opened", id)
	}
	return textResult(fmt.Sprintf("Opened %s", id)), nil
}

func (s *Server) handleRenameDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req, "name")
	if err != nil {
		return nil, err
	}
	return s.changed(s.engine.Rename(ctx, name), "rename document"), nil
}

func (s *Server) handleDuplicateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "documentId")
	if err != nil {
		return nil, err
	}
	cp := s.docs.Duplicate(ctx, id, req.GetString("name", ""))
	if cp == nil {
		return nil, fmt.Errorf("duplicate of %s failed", id)
	}
	return jsonResult(domain.DocumentSummary{ID: cp.ID, Name: cp.Name, LastEdited: cp.LastEdited})
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"document":  s.engine.Document(),
		"selection": s.engine.Selection(),
	})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.changed(s.engine.Undo(), "undo"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.changed(s.engine.Redo(), "redo"), nil
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.History())
}

func (s *Server) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Flush(ctx); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return textResult("Saved"), nil
}
