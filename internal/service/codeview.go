package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"quizbuilder/internal/markup"
)

// Code view file extensions.
const (
	MarkupExt     = ".html"
	StylesheetExt = ".css"
)

// ─────────────────────────────────────────────────────────────
// CodeView: markup projection mirrored to files
// ─────────────────────────────────────────────────────────────

// CodeView writes the markup and stylesheet of every screen of the live
// document to a directory and reads edited files back through the engine.
type CodeView struct {
	engine *Engine
	dir    string
	log    *zap.Logger

	mu      sync.Mutex
	screens map[string]string // base name -> screen id
	written map[string]string // path -> last content written
}

// NewCodeView creates a CodeView over dir.
func NewCodeView(engine *Engine, dir string, log *zap.Logger) *CodeView {
	if log == nil {
		log = zap.NewNop()
	}
	return &CodeView{
		engine:  engine,
		dir:     dir,
		log:     log.Named("codeview"),
		screens: make(map[string]string),
		written: make(map[string]string),
	}
}

// Dir returns the directory files are written to.
func (c *CodeView) Dir() string { return c.dir }

// baseName is "<document>-<nn>-<screen>", unique per screen position.
func baseName(docName string, index int, screenName string) string {
	doc := slug.Make(docName)
	if doc == "" {
		doc = "quiz"
	}
	scr := slug.Make(screenName)
	if scr == "" {
		scr = "screen"
	}
	return fmt.Sprintf("%s-%02d-%s", doc, index+1, scr)
}

// Export writes every screen of the live document and returns the written
// markup paths. Files of a previous export that no longer map to a screen
// are left alone.
func (c *CodeView) Export(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, fmt.Errorf("create code view dir: %w", err)
	}
	doc := c.engine.Document()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.screens = make(map[string]string, len(doc.Screens))

	var paths []string
	for i, scr := range doc.Screens {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		proj, err := markup.Generate(doc, scr.ID)
		if err != nil {
			return paths, err
		}
		base := baseName(doc.Name, i, scr.Name)
		c.screens[base] = scr.ID
		htmlPath := filepath.Join(c.dir, base+MarkupExt)
		if err := c.writeLocked(htmlPath, proj.Markup); err != nil {
			return paths, err
		}
		if err := c.writeLocked(filepath.Join(c.dir, base+StylesheetExt), proj.Stylesheet); err != nil {
			return paths, err
		}
		paths = append(paths, htmlPath)
	}
	c.log.Debug("Exported code view", zap.String("dir", c.dir), zap.Int("screens", len(paths)))
	return paths, nil
}

func (c *CodeView) writeLocked(path, content string) error {
	if c.written[path] == content {
		if cur, err := os.ReadFile(path); err == nil && string(cur) == content {
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	c.written[path] = content
	return nil
}

// Sync applies an edited markup or stylesheet file to the live document
// and re-exports on change. Files the code view wrote itself, and files
// not belonging to an exported screen, are ignored. It returns the number
// of changed elements.
func (c *CodeView) Sync(ctx context.Context, path string) (int, error) {
	ext := filepath.Ext(path)
	if ext != MarkupExt && ext != StylesheetExt {
		return 0, nil
	}
	base := strings.TrimSuffix(filepath.Base(path), ext)
	htmlPath := filepath.Join(c.dir, base+MarkupExt)
	cssPath := filepath.Join(c.dir, base+StylesheetExt)

	c.mu.Lock()
	_, known := c.screens[base]
	htmlText, htmlErr := os.ReadFile(htmlPath)
	cssText, cssErr := os.ReadFile(cssPath)
	echo := htmlErr == nil && cssErr == nil &&
		c.written[htmlPath] == string(htmlText) && c.written[cssPath] == string(cssText)
	c.mu.Unlock()

	if !known || echo {
		return 0, nil
	}
	if err := errors.Join(htmlErr, cssErr); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read code view: %w", err)
	}

	n := c.engine.ApplyMarkup(ctx, string(htmlText), string(cssText))
	c.log.Info("Applied code view edit", zap.String("file", filepath.Base(path)), zap.Int("changed", n))

	// Re-export so the files show the normalised projection, or roll back
	// an edit that changed nothing.
	if _, err := c.Export(ctx); err != nil {
		return n, err
	}
	return n, nil
}
