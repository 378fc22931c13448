package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quizbuilder/internal/domain"
)

const (
	documentsURI       = "quiz://documents"
	currentDocumentURI = "quiz://document/current"
	screenMarkupPrefix = "quiz://screen/"
	screenMarkupSuffix = "/markup"
)

func (s *Server) registerResources() {
	// ── quiz://documents ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentsURI,
		"All Quiz Documents",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentsResource)

	// ── quiz://document/current ────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		currentDocumentURI,
		"Open Quiz Document",
		mcp.WithMIMEType("application/json"),
	), s.handleCurrentDocumentResource)

	// ── quiz://screen/{screenId}/markup ────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			screenMarkupPrefix+"{screenId}"+screenMarkupSuffix,
			"Screen Markup",
		),
		s.handleScreenMarkupResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list := s.docs.List(ctx)
	if list == nil {
		list = []domain.DocumentSummary{}
	}
	return jsonContents(documentsURI, list)
}

func (s *Server) handleCurrentDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := s.engine.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document is open")
	}
	return jsonContents(currentDocumentURI, doc)
}

func (s *Server) handleScreenMarkupResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	screenID := screenIDFromURI(uri)
	if screenID == "" {
		return nil, fmt.Errorf("could not extract screenId from URI: %s", uri)
	}
	proj, err := s.engine.Markup(screenID)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: uri, MIMEType: "text/html", Text: proj.Markup},
		mcp.TextResourceContents{URI: uri, MIMEType: "text/css", Text: proj.Stylesheet},
	}, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// screenIDFromURI extracts the id from "quiz://screen/{id}/markup".
func screenIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, screenMarkupPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, screenMarkupSuffix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
