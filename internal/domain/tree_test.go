package domain_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"quizbuilder/internal/domain"
)

func sampleDoc() *domain.Document {
	doc := domain.NewDocument("sample")
	body := &doc.Screens[0].Sections.Body
	body.Elements = []domain.Element{
		{ID: "t1", Type: domain.ElementText, SectionID: "body", Content: "Hello"},
		{
			ID: "g1", Type: domain.ElementGroup, SectionID: "body", IsGroup: true,
			Layout: &domain.Layout{Direction: "row"},
			Children: []domain.Element{
				{ID: "b1", Type: domain.ElementButton, SectionID: "body", GroupID: "g1"},
				{
					ID: "g2", Type: domain.ElementGroup, SectionID: "body", GroupID: "g1", IsGroup: true,
					Layout: &domain.Layout{Direction: "column"},
					Children: []domain.Element{
						{ID: "i1", Type: domain.ElementImage, SectionID: "body", GroupID: "g2"},
					},
				},
			},
		},
	}
	return doc
}

func TestFindElement_Nested(t *testing.T) {
	doc := sampleDoc()

	el, ok := domain.FindElement(doc, "i1")
	if !ok {
		t.Fatal("expected to find nested element")
	}
	if el.Type != domain.ElementImage {
		t.Errorf("expected image, got %q", el.Type)
	}

	if _, ok := domain.FindElement(doc, "missing"); ok {
		t.Error("expected missing id to be not found")
	}
	if _, ok := domain.FindElement(nil, "t1"); ok {
		t.Error("expected nil document to be not found")
	}
}

func TestFindOwner(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		id     string
		parent string
		index  int
	}{
		{"t1", "", 0},
		{"g1", "", 1},
		{"b1", "g1", 0},
		{"i1", "g2", 0},
	}
	for _, tc := range tests {
		o, ok := domain.FindOwner(doc, tc.id)
		if !ok {
			t.Fatalf("%s: owner not found", tc.id)
		}
		if o.ParentID != tc.parent || o.Index != tc.index || o.SectionID != "body" {
			t.Errorf("%s: got %+v", tc.id, o)
		}
	}
	if _, ok := domain.FindOwner(doc, "nope"); ok {
		t.Error("expected unknown id to have no owner")
	}
}

func TestParentDirection(t *testing.T) {
	doc := sampleDoc()

	tests := map[string]string{
		"t1": "column",
		"b1": "row",
		"i1": "column",
	}
	for id, want := range tests {
		got, ok := domain.ParentDirection(doc, id)
		if !ok || got != want {
			t.Errorf("%s: got %q (%v), want %q", id, got, ok, want)
		}
	}
	if domain.IsHorizontal("column") || !domain.IsHorizontal("row-reverse") {
		t.Error("IsHorizontal misclassifies directions")
	}
}

func TestClone_Independent(t *testing.T) {
	doc := sampleDoc()
	doc.Screens[0].Sections.Body.Elements[0].Styles = domain.Style{"color": "red"}

	cp := domain.Clone(doc)
	if !reflect.DeepEqual(doc, cp) {
		t.Fatal("clone differs from original")
	}

	cp.Screens[0].Sections.Body.Elements[0].Styles["color"] = "blue"
	cp.Screens[0].Sections.Body.Elements[1].Children[1].Children[0].ID = "changed"

	if doc.Screens[0].Sections.Body.Elements[0].Styles["color"] != "red" {
		t.Error("style map shared between clone and original")
	}
	if _, ok := domain.FindElement(doc, "i1"); !ok {
		t.Error("nested children shared between clone and original")
	}
}

func nestedGroups(depth int) domain.Element {
	el := domain.Element{ID: "leaf", Type: domain.ElementText, SectionID: "body", Content: "deep"}
	for i := 0; i < depth; i++ {
		el = domain.Element{
			ID: fmt.Sprintf("g%d", i), Type: domain.ElementGroup, SectionID: "body", IsGroup: true,
			Children: []domain.Element{el},
		}
	}
	return el
}

func TestClone_DeepNestingStaysIndependent(t *testing.T) {
	// Deep enough to exceed both the structural bound and the JSON decoder's
	// nesting limit.
	for _, depth := range []int{300, 6000} {
		doc := domain.NewDocument("deep")
		doc.Screens[0].Sections.Body.Elements = []domain.Element{nestedGroups(depth)}

		cp := domain.Clone(doc)
		if cp == doc {
			t.Fatalf("depth %d: Clone returned the original", depth)
		}
		leaf, ok := domain.FindElement(cp, "leaf")
		if !ok {
			t.Fatalf("depth %d: leaf missing from clone", depth)
		}
		leaf.Content = "changed"
		if orig, _ := domain.FindElement(doc, "leaf"); orig.Content != "deep" {
			t.Errorf("depth %d: clone shares elements with the original", depth)
		}
	}
}

func TestValidate(t *testing.T) {
	doc := sampleDoc()
	if err := domain.Validate(doc); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	doc.Screens[0].Sections.Body.Elements[1].Children[0].GroupID = ""
	doc.Screens[0].Sections.Body.Elements[0].ID = "b1"
	err := domain.Validate(doc)
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestElementIDs(t *testing.T) {
	got := domain.ElementIDs(sampleDoc())
	want := []string{"b1", "g1", "g2", "i1", "t1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
