package editor_test

import (
	"testing"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
)

func themedDoc(t *testing.T) *domain.Document {
	t.Helper()
	doc := domain.NewDocument("quiz")
	doc, desc := editor.SetActiveTheme(doc, "light")
	if desc == "" {
		t.Fatal("expected theme switch to change the document")
	}
	return doc
}

func TestAddElement_ThemeOverlay(t *testing.T) {
	doc := themedDoc(t)
	doc, id := mustAdd(t, doc, domain.ElementButton)

	el, _ := domain.FindElement(doc, id)
	if el.Styles["backgroundColor"] != domain.ThemeRef("primary") {
		t.Errorf("backgroundColor = %q", el.Styles["backgroundColor"])
	}
	if !el.HasThemeStyle("backgroundColor") || !el.HasThemeStyle("borderRadius") {
		t.Errorf("theme keys not tracked: %v", el.ThemeStyles)
	}
	if el.Styles["padding"] != "10px 20px" {
		t.Error("non-theme keys must be left alone")
	}
	if got := doc.Theme.Resolve(el.Styles["backgroundColor"]); got != "#3b82f6" {
		t.Errorf("resolved primary = %q", got)
	}
}

func TestUpdateElement_ManualOverrideDropsThemeTracking(t *testing.T) {
	doc := themedDoc(t)
	doc, id := mustAdd(t, doc, domain.ElementButton)

	doc, _ = editor.UpdateElement(doc, id, editor.ElementPatch{MergeStyles: domain.Style{"backgroundColor": "#000000"}})
	el, _ := domain.FindElement(doc, id)
	if el.HasThemeStyle("backgroundColor") {
		t.Fatal("manual edit should drop backgroundColor from theme tracking")
	}
	if !el.HasThemeStyle("color") {
		t.Fatal("untouched theme keys should stay tracked")
	}

	doc, _ = editor.SetActiveTheme(doc, "dark")
	el, _ = domain.FindElement(doc, id)
	if el.Styles["backgroundColor"] != "#000000" {
		t.Errorf("theme switch overwrote a manual override: %q", el.Styles["backgroundColor"])
	}
	if doc.ActiveThemeID != "dark" || doc.Theme.Resolve(el.Styles["color"]) != "#111827" {
		t.Errorf("dark theme not applied: %+v", doc.Theme)
	}

	doc, desc := editor.ApplyThemeToElements(doc, editor.ThemeOptions{ElementIDs: []string{id}, ResetAll: true})
	if desc == "" {
		t.Fatal("expected reset to change the element")
	}
	el, _ = domain.FindElement(doc, id)
	if el.Styles["backgroundColor"] != domain.ThemeRef("primary") {
		t.Errorf("reset should restore the theme value, got %q", el.Styles["backgroundColor"])
	}
	if _, ok := el.Styles["padding"]; ok {
		t.Error("reset should drop keys the theme does not produce")
	}
}

func TestStyleClass_ApplyRemove(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, btn := mustAdd(t, doc, domain.ElementButton)
	doc, txt := mustAdd(t, doc, domain.ElementText)

	doc, classID, _ := editor.AddStyleClass(doc, "Primary CTA", domain.ElementButton, domain.Style{"fontWeight": "700", "color": "#222222"})
	doc, desc := editor.ApplyStyleClass(doc, []string{btn, txt}, classID)
	if desc == "" {
		t.Fatal("expected class application to change the document")
	}

	b, _ := domain.FindElement(doc, btn)
	if b.StyleClass != classID || b.Styles["fontWeight"] != "700" {
		t.Fatalf("class not applied to button: %+v", b)
	}
	x, _ := domain.FindElement(doc, txt)
	if x.StyleClass != "" {
		t.Fatal("class must not apply to a different element type")
	}

	doc, _ = editor.UpdateElement(doc, btn, editor.ElementPatch{MergeStyles: domain.Style{"color": "#ff0000"}})
	doc, _ = editor.RemoveStyleClass(doc, []string{btn})
	b, _ = domain.FindElement(doc, btn)
	if b.StyleClass != "" {
		t.Error("reference not cleared")
	}
	if _, ok := b.Styles["fontWeight"]; ok {
		t.Error("class value should be removed")
	}
	if b.Styles["color"] != "#ff0000" {
		t.Error("local override should survive class removal")
	}

	doc, _ = editor.ApplyStyleClass(doc, []string{btn}, classID)
	doc, _ = editor.DeleteStyleClass(doc, classID)
	b, _ = domain.FindElement(doc, btn)
	if b.StyleClass != "" || len(doc.StyleClasses) != 0 {
		t.Error("deleting a class should clear references")
	}
}
