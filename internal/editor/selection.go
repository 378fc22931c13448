package editor

import (
	"quizbuilder/internal/domain"
)

// Selection tracks the selected elements or, exclusively, one section.
// The first element id is the primary selection.
type Selection struct {
	ElementIDs []string `json:"elementIds"`
	SectionID  string   `json:"sectionId,omitempty"`
}

// Primary returns the first selected element id.
func (s *Selection) Primary() string {
	if len(s.ElementIDs) == 0 {
		return ""
	}
	return s.ElementIDs[0]
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	for _, sel := range s.ElementIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the selected element ids.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ElementIDs...)
}

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool {
	return len(s.ElementIDs) == 0 && s.SectionID == ""
}

// Set replaces the element selection.
func (s *Selection) Set(ids []string) {
	s.ElementIDs = dedupe(ids)
	s.SectionID = ""
}

// Clear drops every selection.
func (s *Selection) Clear() {
	s.ElementIDs = nil
	s.SectionID = ""
}

// SelectSection selects a section and clears the element selection. An
// empty id clears the section selection.
func (s *Selection) SelectSection(id string) {
	s.ElementIDs = nil
	s.SectionID = id
}

// SelectElement applies click-to-drill-down semantics. A plain click selects
// the outermost container around id. A multi-select gesture on an element
// whose container is selected replaces that container with the next level
// down; otherwise it toggles the outermost container in or out. It reports
// whether the selection changed.
func (s *Selection) SelectElement(doc *domain.Document, id string, multi bool) bool {
	path := ancestry(doc, id)
	if len(path) == 0 {
		return false
	}
	before := s.IDs()
	beforeSection := s.SectionID
	s.SectionID = ""

	if !multi {
		s.ElementIDs = []string{path[0]}
		return changed(before, s.ElementIDs) || beforeSection != ""
	}

	deepest := -1
	for i := 0; i < len(path)-1; i++ {
		if s.Contains(path[i]) {
			deepest = i
		}
	}
	if deepest >= 0 {
		s.replace(path[deepest], path[deepest+1])
	} else if s.Contains(path[0]) {
		s.remove(path[0])
	} else {
		s.ElementIDs = append(s.ElementIDs, path[0])
	}
	return changed(before, s.ElementIDs) || beforeSection != ""
}

// Prune drops selected ids that no longer exist in doc, and a selected
// section that is missing or disabled on the current screen.
func (s *Selection) Prune(doc *domain.Document) bool {
	var kept []string
	for _, id := range s.ElementIDs {
		if _, ok := domain.FindElement(doc, id); ok {
			kept = append(kept, id)
		}
	}
	pruned := len(kept) != len(s.ElementIDs)
	s.ElementIDs = kept
	if s.SectionID != "" {
		scr := doc.CurrentScreen()
		if scr == nil {
			s.SectionID = ""
			return true
		}
		if sec, ok := scr.Sections.Get(s.SectionID); !ok || !sec.Enabled {
			s.SectionID = ""
			pruned = true
		}
	}
	return pruned
}

func (s *Selection) replace(old, next string) {
	for i, id := range s.ElementIDs {
		if id == old {
			s.ElementIDs[i] = next
		}
	}
	s.ElementIDs = dedupe(s.ElementIDs)
}

func (s *Selection) remove(id string) {
	kept := s.ElementIDs[:0]
	for _, sel := range s.ElementIDs {
		if sel != id {
			kept = append(kept, sel)
		}
	}
	s.ElementIDs = kept
}

// ancestry returns the container chain from the outermost ancestor down to
// id itself.
func ancestry(doc *domain.Document, id string) []string {
	var path []string
	for cur := id; cur != ""; {
		o, ok := domain.FindOwner(doc, cur)
		if !ok {
			break
		}
		path = append([]string{cur}, path...)
		cur = o.ParentID
	}
	return path
}

func changed(a, b []string) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}
