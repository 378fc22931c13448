package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap/zaptest"

	"quizbuilder/internal/config"
	"quizbuilder/internal/domain"
	"quizbuilder/internal/service"
	"quizbuilder/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zaptest.NewLogger(t)
	stores, err := storage.Open(context.Background(), config.StorageConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "quiz.db"),
		JournalLimit: 40,
	}, log)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	engine := service.NewEngine(service.EngineOptions{
		Store:   stores.Documents,
		Journal: stores.Journal,
		Window:  10 * time.Millisecond,
		Logger:  log,
	})
	t.Cleanup(func() { engine.Close(context.Background()) })

	return New(Deps{
		Engine:    engine,
		Documents: service.NewDocumentService(engine, stores.Documents, log),
		Logger:    log,
	})
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Tools
// ─────────────────────────────────────────────────────────────

func TestTools_AddUpdateUndo(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleAddElement(ctx, callTool("add_element", map[string]any{"type": "button"}))
	if err != nil {
		t.Fatalf("add_element: %v", err)
	}
	var added struct {
		ElementID string `json:"elementId"`
	}
	decode(t, res, &added)
	if added.ElementID == "" {
		t.Fatal("add_element returned no id")
	}

	_, err = s.handleUpdateElement(ctx, callTool("update_element", map[string]any{
		"elementId": added.ElementID,
		"content":   "Start",
		"styles":    `{"color":"#ff0000"}`,
	}))
	if err != nil {
		t.Fatalf("update_element: %v", err)
	}
	if _, err := s.handleSave(ctx, callTool("save", nil)); err != nil {
		t.Fatalf("save: %v", err)
	}

	el, ok := domain.FindElement(s.engine.Document(), added.ElementID)
	if !ok || el.Content != "Start" || el.Styles["color"] != "#ff0000" {
		t.Fatalf("element after update = %+v", el)
	}

	if _, err := s.handleUndo(ctx, callTool("undo", nil)); err != nil {
		t.Fatalf("undo: %v", err)
	}
	el, _ = domain.FindElement(s.engine.Document(), added.ElementID)
	if el != nil && el.Content == "Start" {
		t.Error("undo did not revert the update")
	}
}

func TestTools_InvalidArguments(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.handleAddElement(ctx, callTool("add_element", map[string]any{"type": "marquee"})); err == nil {
		t.Error("add_element accepted an unknown type")
	}
	if _, err := s.handleAddElement(ctx, callTool("add_element", map[string]any{
		"type": "text", "sectionId": domain.SectionHeader,
	})); err == nil {
		t.Error("add_element accepted a disabled section")
	}
	if _, err := s.handleUpdateElement(ctx, callTool("update_element", map[string]any{"elementId": "x"})); err == nil {
		t.Error("update_element without changes did not fail")
	}
	if _, err := s.handleUpdateElement(ctx, callTool("update_element", map[string]any{
		"elementId": "x", "styles": "{not json",
	})); err == nil {
		t.Error("update_element accepted malformed styles")
	}

	res, err := s.handleRemoveElement(ctx, callTool("remove_element", map[string]any{"elementId": "missing"}))
	if err != nil {
		t.Fatalf("remove_element: %v", err)
	}
	if txt := resultText(t, res); !strings.HasPrefix(txt, "No change") {
		t.Errorf("remove of unknown id = %q, want a no-change result", txt)
	}
}

func TestTools_DocumentsAndHistory(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCreateDocument(ctx, callTool("create_document", map[string]any{"name": "Capitals"}))
	if err != nil {
		t.Fatalf("create_document: %v", err)
	}
	var created domain.DocumentSummary
	decode(t, res, &created)
	if created.Name != "Capitals" || s.engine.DocumentID() != created.ID {
		t.Fatalf("created = %+v, live id %s", created, s.engine.DocumentID())
	}

	if _, err := s.handleAddScreen(ctx, callTool("add_screen", map[string]any{"name": "Question 2"})); err != nil {
		t.Fatalf("add_screen: %v", err)
	}
	if _, err := s.handleSave(ctx, callTool("save", nil)); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err = s.handleGetHistory(ctx, callTool("get_history", nil))
	if err != nil {
		t.Fatalf("get_history: %v", err)
	}
	var hist service.HistoryView
	decode(t, res, &hist)
	if len(hist.Past) == 0 {
		t.Error("history has no undoable entry after add_screen")
	}

	res, err = s.handleListDocuments(ctx, callTool("list_documents", nil))
	if err != nil {
		t.Fatalf("list_documents: %v", err)
	}
	var list []domain.DocumentSummary
	decode(t, res, &list)
	found := false
	for _, d := range list {
		found = found || d.ID == created.ID
	}
	if !found {
		t.Errorf("list_documents = %+v, missing %s", list, created.ID)
	}
}

func TestTools_Markup(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	id := s.engine.AddElement(domain.ElementText, domain.SectionBody, "")
	if err := s.engine.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	res, err := s.handleGetMarkup(ctx, callTool("get_markup", nil))
	if err != nil {
		t.Fatalf("get_markup: %v", err)
	}
	var proj struct {
		Markup     string `json:"markup"`
		Stylesheet string `json:"stylesheet"`
	}
	decode(t, res, &proj)
	if !strings.Contains(proj.Markup, id) {
		t.Fatalf("markup does not mention %s:\n%s", id, proj.Markup)
	}

	css := strings.Replace(proj.Stylesheet, "#1f2937", "#ff0000", 1)
	res, err = s.handleApplyMarkup(ctx, callTool("apply_markup", map[string]any{
		"markup":     proj.Markup,
		"stylesheet": css,
	}))
	if err != nil {
		t.Fatalf("apply_markup: %v", err)
	}
	if txt := resultText(t, res); txt != "Changed 1 element(s)" {
		t.Errorf("apply_markup = %q", txt)
	}
	el, _ := domain.FindElement(s.engine.Document(), id)
	if el == nil || el.Styles["color"] != "#ff0000" {
		t.Errorf("element after apply = %+v", el)
	}
}

// ─────────────────────────────────────────────────────────────
// Resources and prompts
// ─────────────────────────────────────────────────────────────

func TestScreenIDFromURI(t *testing.T) {
	cases := map[string]string{
		"quiz://screen/abc-123/markup": "abc-123",
		"quiz://screen//markup":        "",
		"quiz://screen/a/b/markup":     "",
		"notes://page/abc/blocks":      "",
	}
	for uri, want := range cases {
		if got := screenIDFromURI(uri); got != want {
			t.Errorf("screenIDFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestResources_CurrentDocument(t *testing.T) {
	s := newTestServer(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = currentDocumentURI

	contents, err := s.handleCurrentDocumentResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	var doc domain.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != s.engine.DocumentID() {
		t.Errorf("resource id = %s, want %s", doc.ID, s.engine.DocumentID())
	}
}

func TestPrompts_EditAsMarkup(t *testing.T) {
	s := newTestServer(t)
	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"screenId": "s1", "change": "make the title bigger"}

	res, err := s.handleEditMarkupPrompt(context.Background(), req)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	text := res.Messages[0].Content.(mcp.TextContent).Text
	if !strings.Contains(text, `screenId "s1"`) || !strings.Contains(text, "make the title bigger") {
		t.Errorf("prompt text = %q", text)
	}
}
