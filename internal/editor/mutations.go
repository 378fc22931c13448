package editor

import (
	"fmt"
	"reflect"
	"sort"

	"quizbuilder/internal/domain"
)

// ElementPatch is a partial update. Nil fields are left untouched.
type ElementPatch struct {
	Content     *string
	Styles      domain.Style // replaces the whole style map
	MergeStyles domain.Style // merged key by key; an empty value deletes the key
	Attributes  map[string]string
	Layout      *domain.Layout
	StyleClass  *string
}

// Empty reports whether the patch carries no change at all.
func (p ElementPatch) Empty() bool {
	return p.Content == nil && p.Styles == nil && p.MergeStyles == nil &&
		p.Attributes == nil && p.Layout == nil && p.StyleClass == nil
}

func resolveScreen(doc *domain.Document, screenID string) (int, bool) {
	if screenID == "" {
		if doc.CurrentScreen() == nil {
			return -1, false
		}
		return doc.CurrentScreenIndex, true
	}
	_, idx, ok := doc.ScreenByID(screenID)
	return idx, ok
}

// AddElement appends a default element of type t to the end of the section.
// An empty screenID targets the current screen. When a theme is active its
// overlay is applied to the new element.
func AddElement(doc *domain.Document, t domain.ElementType, sectionID, screenID string) (*domain.Document, string, string) {
	if doc == nil || !t.Valid() {
		return doc, "", ""
	}
	si, ok := resolveScreen(doc, screenID)
	if !ok {
		return doc, "", ""
	}
	if sec, ok := doc.Screens[si].Sections.Get(sectionID); !ok || !sec.Enabled {
		return doc, "", ""
	}

	out := domain.Clone(doc)
	sec, _ := out.Screens[si].Sections.Get(sectionID)
	el := domain.DefaultElement(t, sectionID)
	el.ID = NewElementID()
	if out.Theme != nil {
		overlayTheme(&el, out.Theme, false, false)
	}
	sec.Elements = append(sec.Elements, el)
	return out, el.ID, fmt.Sprintf("Add %s", t)
}

// UpdateElement merges patch into the element with id wherever it lives.
// Style keys changed by hand stop being tracked as theme-derived.
func UpdateElement(doc *domain.Document, id string, patch ElementPatch) (*domain.Document, string) {
	if doc == nil || patch.Empty() {
		return doc, ""
	}
	cur, ok := domain.FindElement(doc, id)
	if !ok {
		return doc, ""
	}
	next := applyPatch(*cur, patch)
	if reflect.DeepEqual(normalizeForCompare(*cur), normalizeForCompare(next)) {
		return doc, ""
	}

	out := domain.Clone(doc)
	el, _ := domain.FindElement(out, id)
	*el = next
	return out, "Update element"
}

func applyPatch(cur domain.Element, p ElementPatch) domain.Element {
	next := domain.CloneElement(cur)
	if p.Content != nil {
		next.Content = *p.Content
	}
	if p.Styles != nil {
		next.Styles = p.Styles.Clone()
	}
	if p.MergeStyles != nil {
		if next.Styles == nil {
			next.Styles = domain.Style{}
		}
		for k, v := range p.MergeStyles {
			if v == "" {
				delete(next.Styles, k)
			} else {
				next.Styles[k] = v
			}
		}
	}
	if p.Attributes != nil {
		next.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			next.Attributes[k] = v
		}
	}
	if p.Layout != nil && next.IsGroup {
		l := *p.Layout
		next.Layout = &l
	}
	if p.StyleClass != nil {
		next.StyleClass = *p.StyleClass
	}
	if len(next.ThemeStyles) > 0 {
		var kept []string
		for _, k := range next.ThemeStyles {
			if v, ok := next.Styles[k]; ok && v == cur.Styles[k] {
				kept = append(kept, k)
			}
		}
		next.ThemeStyles = kept
	}
	return next
}

// normalizeForCompare treats nil and empty maps and slices alike.
func normalizeForCompare(e domain.Element) domain.Element {
	if len(e.Styles) == 0 {
		e.Styles = nil
	}
	if len(e.Attributes) == 0 {
		e.Attributes = nil
	}
	if len(e.ThemeStyles) == 0 {
		e.ThemeStyles = nil
	}
	return e
}

// RemoveElement deletes the element and, for containers, its whole subtree.
func RemoveElement(doc *domain.Document, id string) (*domain.Document, string) {
	if _, ok := domain.FindOwner(doc, id); !ok {
		return doc, ""
	}
	out := domain.Clone(doc)
	removeInPlace(out, id)
	return out, "Remove element"
}

// RemoveElements deletes every listed element. Unknown ids are skipped.
func RemoveElements(doc *domain.Document, ids []string) (*domain.Document, string) {
	var present []string
	for _, id := range dedupe(ids) {
		if _, ok := domain.FindOwner(doc, id); ok {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return doc, ""
	}
	out := domain.Clone(doc)
	n := 0
	for _, id := range present {
		if removeInPlace(out, id) {
			n++
		}
	}
	if n == 1 {
		return out, "Remove element"
	}
	return out, fmt.Sprintf("Remove %d elements", n)
}

func removeInPlace(doc *domain.Document, id string) bool {
	o, ok := domain.FindOwner(doc, id)
	if !ok {
		return false
	}
	list, ok := domain.OwningList(doc, o)
	if !ok {
		return false
	}
	*list = append((*list)[:o.Index], (*list)[o.Index+1:]...)
	return true
}

// MoveElement relocates a top-level element to the end of another section
// of the same screen. The target must exist and be enabled.
func MoveElement(doc *domain.Document, id, targetSectionID string) (*domain.Document, string) {
	o, ok := domain.FindOwner(doc, id)
	if !ok || !o.TopLevel() || o.SectionID == targetSectionID {
		return doc, ""
	}
	target, ok := doc.Screens[o.ScreenIndex].Sections.Get(targetSectionID)
	if !ok || !target.Enabled {
		return doc, ""
	}

	out := domain.Clone(doc)
	src, _ := out.Screens[o.ScreenIndex].Sections.Get(o.SectionID)
	dst, _ := out.Screens[o.ScreenIndex].Sections.Get(targetSectionID)
	el := src.Elements[o.Index]
	src.Elements = append(src.Elements[:o.Index], src.Elements[o.Index+1:]...)
	setSection(&el, targetSectionID)
	dst.Elements = append(dst.Elements, el)
	return out, fmt.Sprintf("Move element to %s", targetSectionID)
}

func setSection(el *domain.Element, sectionID string) {
	el.SectionID = sectionID
	for i := range el.Children {
		setSection(&el.Children[i], sectionID)
	}
}

// Reorder directions.
const (
	DirUp    = "up"
	DirDown  = "down"
	DirLeft  = "left"
	DirRight = "right"
)

// ReorderElement swaps the element with its neighbour in the owning list.
// Up and down apply to column flows, left and right to row flows. A
// direction that does not match the flow, or a move past either end, is a
// no-op.
func ReorderElement(doc *domain.Document, id, direction string) (*domain.Document, string) {
	flow, ok := domain.ParentDirection(doc, id)
	if !ok {
		return doc, ""
	}
	var step int
	switch direction {
	case DirUp, DirLeft:
		step = -1
	case DirDown, DirRight:
		step = 1
	default:
		return doc, ""
	}
	horizontalMove := direction == DirLeft || direction == DirRight
	if horizontalMove != domain.IsHorizontal(flow) {
		return doc, ""
	}
	if domain.IsReversed(flow) {
		step = -step
	}

	o, _ := domain.FindOwner(doc, id)
	list, _ := domain.OwningList(doc, o)
	to := o.Index + step
	if to < 0 || to >= len(*list) {
		return doc, ""
	}

	out := domain.Clone(doc)
	outList, _ := domain.OwningList(out, o)
	(*outList)[o.Index], (*outList)[to] = (*outList)[to], (*outList)[o.Index]
	return out, fmt.Sprintf("Move element %s", direction)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
