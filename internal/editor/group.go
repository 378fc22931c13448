package editor

import (
	"fmt"
	"sort"

	"quizbuilder/internal/domain"
)

// GroupElements wraps two or more co-located elements in a new group
// container placed where the first of them stood. The children keep their
// relative order. It returns the new group id.
func GroupElements(doc *domain.Document, ids []string) (*domain.Document, string, string) {
	ids = dedupe(ids)
	if len(ids) < 2 {
		return doc, "", ""
	}

	var first domain.Owner
	indexes := make([]int, 0, len(ids))
	for i, id := range ids {
		o, ok := domain.FindOwner(doc, id)
		if !ok {
			return doc, "", ""
		}
		if i == 0 {
			first = o
		} else if o.ScreenIndex != first.ScreenIndex || o.SectionID != first.SectionID || o.ParentID != first.ParentID {
			return doc, "", ""
		}
		indexes = append(indexes, o.Index)
	}
	sort.Ints(indexes)

	out := domain.Clone(doc)
	list, ok := domain.OwningList(out, first)
	if !ok {
		return doc, "", ""
	}

	group := domain.DefaultElement(domain.ElementGroup, first.SectionID)
	group.ID = NewElementID()
	group.GroupID = first.ParentID

	picked := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		child := (*list)[idx]
		child.GroupID = group.ID
		group.Children = append(group.Children, child)
		picked[idx] = true
	}

	rest := make([]domain.Element, 0, len(*list)-len(indexes)+1)
	for i, el := range *list {
		if i == indexes[0] {
			rest = append(rest, group)
		}
		if !picked[i] {
			rest = append(rest, el)
		}
	}
	*list = rest
	return out, group.ID, fmt.Sprintf("Group %d elements", len(indexes))
}

// UngroupElement dissolves a container, putting its children back in its
// place in order. It returns the ids of the released children.
func UngroupElement(doc *domain.Document, groupID string) (*domain.Document, []string, string) {
	el, ok := domain.FindElement(doc, groupID)
	if !ok || !el.IsGroup {
		return doc, nil, ""
	}
	o, _ := domain.FindOwner(doc, groupID)

	out := domain.Clone(doc)
	list, ok := domain.OwningList(out, o)
	if !ok {
		return doc, nil, ""
	}
	group := (*list)[o.Index]

	released := make([]string, 0, len(group.Children))
	children := make([]domain.Element, len(group.Children))
	for i, child := range group.Children {
		child.GroupID = o.ParentID
		children[i] = child
		released = append(released, child.ID)
	}

	rest := make([]domain.Element, 0, len(*list)-1+len(children))
	rest = append(rest, (*list)[:o.Index]...)
	rest = append(rest, children...)
	rest = append(rest, (*list)[o.Index+1:]...)
	*list = rest
	return out, released, "Ungroup elements"
}
