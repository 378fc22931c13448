package domain

import (
	"sort"
	"strings"
)

// Owner locates the list that holds an element.
type Owner struct {
	ScreenIndex int
	SectionID   string
	ParentID    string // container id, empty for top-level elements
	Index       int
}

// TopLevel reports whether the element sits directly in a section.
func (o Owner) TopLevel() bool { return o.ParentID == "" }

// FindElement searches every section of every screen, recursing into
// container children.
func FindElement(doc *Document, id string) (*Element, bool) {
	if doc == nil || id == "" {
		return nil, false
	}
	for si := range doc.Screens {
		for _, secID := range SectionOrder {
			sec, _ := doc.Screens[si].Sections.Get(secID)
			if el, ok := findIn(sec.Elements, id); ok {
				return el, true
			}
		}
	}
	return nil, false
}

func findIn(list []Element, id string) (*Element, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
		if len(list[i].Children) > 0 {
			if el, ok := findIn(list[i].Children, id); ok {
				return el, true
			}
		}
	}
	return nil, false
}

// FindOwner returns where the element with id lives.
func FindOwner(doc *Document, id string) (Owner, bool) {
	if doc == nil || id == "" {
		return Owner{}, false
	}
	for si := range doc.Screens {
		for _, secID := range SectionOrder {
			sec, _ := doc.Screens[si].Sections.Get(secID)
			if o, ok := ownerIn(sec.Elements, id, ""); ok {
				o.ScreenIndex = si
				o.SectionID = secID
				return o, true
			}
		}
	}
	return Owner{}, false
}

func ownerIn(list []Element, id, parentID string) (Owner, bool) {
	for i := range list {
		if list[i].ID == id {
			return Owner{ParentID: parentID, Index: i}, true
		}
		if len(list[i].Children) > 0 {
			if o, ok := ownerIn(list[i].Children, id, list[i].ID); ok {
				return o, true
			}
		}
	}
	return Owner{}, false
}

// OwningList returns a pointer to the slice identified by o, so callers
// working on a private copy can splice it in place.
func OwningList(doc *Document, o Owner) (*[]Element, bool) {
	if o.ScreenIndex < 0 || o.ScreenIndex >= len(doc.Screens) {
		return nil, false
	}
	sec, ok := doc.Screens[o.ScreenIndex].Sections.Get(o.SectionID)
	if !ok {
		return nil, false
	}
	if o.ParentID == "" {
		return &sec.Elements, true
	}
	parent, ok := findIn(sec.Elements, o.ParentID)
	if !ok {
		return nil, false
	}
	return &parent.Children, true
}

// ParentDirection returns the effective flex direction of the list owning
// the element: the container layout if nested, else the section layout.
func ParentDirection(doc *Document, id string) (string, bool) {
	o, ok := FindOwner(doc, id)
	if !ok {
		return "", false
	}
	if o.ParentID != "" {
		parent, ok := FindElement(doc, o.ParentID)
		if ok && parent.Layout != nil && parent.Layout.Direction != "" {
			return parent.Layout.Direction, true
		}
		return DefaultGroupLayout().Direction, true
	}
	sec, _ := doc.Screens[o.ScreenIndex].Sections.Get(o.SectionID)
	if sec.Layout.Direction == "" {
		return DefaultSectionLayout(o.SectionID).Direction, true
	}
	return sec.Layout.Direction, true
}

// IsHorizontal reports whether a flex direction lays children out in a row.
func IsHorizontal(direction string) bool {
	return strings.HasPrefix(direction, "row")
}

// IsReversed reports whether a flex direction runs backwards.
func IsReversed(direction string) bool {
	return strings.HasSuffix(direction, "-reverse")
}

// Walk visits every element of the document depth-first, parents before
// children. Returning false from fn stops descent into that element.
func Walk(doc *Document, fn func(screen *Screen, sectionID string, el *Element) bool) {
	if doc == nil {
		return
	}
	for si := range doc.Screens {
		scr := &doc.Screens[si]
		for _, secID := range SectionOrder {
			sec, _ := scr.Sections.Get(secID)
			walkList(sec.Elements, func(el *Element) bool { return fn(scr, secID, el) })
		}
	}
}

// WalkElements visits list and all descendants depth-first.
func WalkElements(list []Element, fn func(el *Element) bool) {
	walkList(list, fn)
}

func walkList(list []Element, fn func(el *Element) bool) {
	for i := range list {
		if !fn(&list[i]) {
			continue
		}
		if len(list[i].Children) > 0 {
			walkList(list[i].Children, fn)
		}
	}
}

// ElementIDs returns the sorted multiset of element ids in the document.
func ElementIDs(doc *Document) []string {
	var ids []string
	Walk(doc, func(_ *Screen, _ string, el *Element) bool {
		ids = append(ids, el.ID)
		return true
	})
	sort.Strings(ids)
	return ids
}
