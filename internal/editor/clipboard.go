package editor

import (
	"fmt"

	"quizbuilder/internal/domain"
)

// Clipboard holds deep copies of copied elements. Ids are kept as they were
// at copy time; fresh ones are assigned on paste.
type Clipboard []domain.Element

// Copy deep-copies the listed elements in the given order. Elements nested
// inside another copied element are skipped since they travel with it.
func Copy(doc *domain.Document, ids []string) Clipboard {
	ids = dedupe(ids)
	var clip Clipboard
	for _, id := range ids {
		el, ok := domain.FindElement(doc, id)
		if !ok || insideAny(doc, id, ids) {
			continue
		}
		clip = append(clip, domain.CloneElement(*el))
	}
	return clip
}

func insideAny(doc *domain.Document, id string, ids []string) bool {
	for _, other := range ids {
		if other == id {
			continue
		}
		anc, ok := domain.FindElement(doc, other)
		if !ok || len(anc.Children) == 0 {
			continue
		}
		found := false
		domain.WalkElements(anc.Children, func(el *domain.Element) bool {
			if el.ID == id {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// Paste inserts fresh copies of the clipboard at the end of the target group
// or section. With no target it uses the section the first item was copied
// from. It returns the ids of the pasted top-level elements.
func Paste(doc *domain.Document, clip Clipboard, screenID, sectionID, groupID string) (*domain.Document, []string, string) {
	if doc == nil || len(clip) == 0 {
		return doc, nil, ""
	}
	si, ok := resolveScreen(doc, screenID)
	if !ok {
		return doc, nil, ""
	}

	var target domain.Owner
	if groupID != "" {
		o, ok := domain.FindOwner(doc, groupID)
		if !ok || o.ScreenIndex != si {
			return doc, nil, ""
		}
		g, _ := domain.FindElement(doc, groupID)
		if !g.IsGroup {
			return doc, nil, ""
		}
		target = domain.Owner{ScreenIndex: si, SectionID: o.SectionID, ParentID: groupID}
	} else {
		if sectionID == "" {
			sectionID = clip[0].SectionID
		}
		sec, ok := doc.Screens[si].Sections.Get(sectionID)
		if !ok || !sec.Enabled {
			return doc, nil, ""
		}
		target = domain.Owner{ScreenIndex: si, SectionID: sectionID}
	}

	out := domain.Clone(doc)
	list, ok := domain.OwningList(out, target)
	if !ok {
		return doc, nil, ""
	}
	ids := make([]string, 0, len(clip))
	for _, item := range clip {
		el := domain.CloneElement(item)
		reassignIDs(&el, target.ParentID, target.SectionID)
		*list = append(*list, el)
		ids = append(ids, el.ID)
	}
	if len(ids) == 1 {
		return out, ids, "Paste element"
	}
	return out, ids, fmt.Sprintf("Paste %d elements", len(ids))
}

// reassignIDs gives el and all its descendants fresh ids, pointing each
// child's GroupID at its new parent.
func reassignIDs(el *domain.Element, parentID, sectionID string) {
	el.ID = NewElementID()
	el.GroupID = parentID
	el.SectionID = sectionID
	for i := range el.Children {
		reassignIDs(&el.Children[i], el.ID, sectionID)
	}
}
