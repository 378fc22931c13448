package editor_test

import (
	"reflect"
	"testing"

	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
)

func nestedDoc(t *testing.T) (*domain.Document, string, string, string, string) {
	t.Helper()
	doc := domain.NewDocument("quiz")
	doc, a := mustAdd(t, doc, domain.ElementText)
	doc, b := mustAdd(t, doc, domain.ElementText)
	doc, c := mustAdd(t, doc, domain.ElementButton)
	doc, inner, _ := editor.GroupElements(doc, []string{a, b})
	doc, outer, _ := editor.GroupElements(doc, []string{inner, c})
	return doc, a, inner, outer, c
}

func TestSelectElement_DrillDown(t *testing.T) {
	doc, a, inner, outer, _ := nestedDoc(t)
	var sel editor.Selection

	if !sel.SelectElement(doc, a, false) {
		t.Fatal("expected selection to change")
	}
	if !reflect.DeepEqual(sel.ElementIDs, []string{outer}) {
		t.Fatalf("plain click should select the outermost container, got %v", sel.ElementIDs)
	}

	sel.SelectElement(doc, a, true)
	if !reflect.DeepEqual(sel.ElementIDs, []string{inner}) {
		t.Fatalf("multi-select should drill one level, got %v", sel.ElementIDs)
	}

	sel.SelectElement(doc, a, true)
	if !reflect.DeepEqual(sel.ElementIDs, []string{a}) {
		t.Fatalf("multi-select should reach the leaf, got %v", sel.ElementIDs)
	}

	sel.SelectElement(doc, a, false)
	if !reflect.DeepEqual(sel.ElementIDs, []string{outer}) {
		t.Fatalf("plain click should reset to the outermost container, got %v", sel.ElementIDs)
	}
}

func TestSelectElement_ToggleAndSectionExclusive(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, a := mustAdd(t, doc, domain.ElementText)
	doc, b := mustAdd(t, doc, domain.ElementText)
	var sel editor.Selection

	sel.SelectSection(domain.SectionBody)
	sel.SelectElement(doc, a, true)
	sel.SelectElement(doc, b, true)
	if sel.SectionID != "" {
		t.Error("element selection must clear the section")
	}
	if !reflect.DeepEqual(sel.ElementIDs, []string{a, b}) || sel.Primary() != a {
		t.Fatalf("unexpected selection %v", sel.ElementIDs)
	}

	sel.SelectElement(doc, a, true)
	if !reflect.DeepEqual(sel.ElementIDs, []string{b}) {
		t.Fatalf("second multi-select should toggle off, got %v", sel.ElementIDs)
	}

	sel.SelectSection(domain.SectionBody)
	if len(sel.ElementIDs) != 0 || sel.SectionID != domain.SectionBody {
		t.Fatal("section selection must clear elements")
	}

	if sel.SelectElement(doc, "missing", false) {
		t.Fatal("unknown id must not change the selection")
	}
}

func TestSelection_Prune(t *testing.T) {
	doc := domain.NewDocument("quiz")
	doc, a := mustAdd(t, doc, domain.ElementText)
	doc, b := mustAdd(t, doc, domain.ElementText)
	sel := editor.Selection{}
	sel.Set([]string{a, b})

	doc, _ = editor.RemoveElement(doc, a)
	if !sel.Prune(doc) {
		t.Fatal("expected prune to report a change")
	}
	if !reflect.DeepEqual(sel.ElementIDs, []string{b}) {
		t.Fatalf("unexpected selection %v", sel.ElementIDs)
	}
}
