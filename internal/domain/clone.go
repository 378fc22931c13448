package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// maxCloneDepth bounds container nesting during the first structural copy.
// Zero or less means unbounded.
const maxCloneDepth = 256

var errCloneDepth = errors.New("clone: nesting too deep")

// Clone deep-copies the document. The bounded structural copy is tried
// first, then a JSON round trip, then a structural copy without the depth
// bound. The result never shares state with doc.
func Clone(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	if out, err := cloneStructural(doc, maxCloneDepth); err == nil {
		return out
	}
	if out, err := cloneJSON(doc); err == nil {
		return out
	}
	out, err := cloneStructural(doc, 0)
	if err != nil {
		panic(err)
	}
	return out
}

func cloneStructural(doc *Document, maxDepth int) (out *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("clone: %v", r)
		}
	}()

	cp := *doc
	if doc.Screens != nil {
		cp.Screens = make([]Screen, len(doc.Screens))
		for i := range doc.Screens {
			scr, err := cloneScreen(doc.Screens[i], maxDepth)
			if err != nil {
				return nil, err
			}
			cp.Screens[i] = scr
		}
	}
	if doc.Theme != nil {
		t := doc.Theme.Clone()
		cp.Theme = &t
	}
	if doc.Themes != nil {
		cp.Themes = make([]ThemeItem, len(doc.Themes))
		for i, ti := range doc.Themes {
			ti.Settings = ti.Settings.Clone()
			cp.Themes[i] = ti
		}
	}
	if doc.StyleClasses != nil {
		cp.StyleClasses = make([]StyleClass, len(doc.StyleClasses))
		for i, sc := range doc.StyleClasses {
			sc.Styles = sc.Styles.Clone()
			cp.StyleClasses[i] = sc
		}
	}
	return &cp, nil
}

func cloneJSON(doc *Document) (*Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func cloneScreen(s Screen, maxDepth int) (Screen, error) {
	var err error
	if s.Sections.Header, err = cloneSection(s.Sections.Header, maxDepth); err != nil {
		return s, err
	}
	if s.Sections.Body, err = cloneSection(s.Sections.Body, maxDepth); err != nil {
		return s, err
	}
	if s.Sections.Footer, err = cloneSection(s.Sections.Footer, maxDepth); err != nil {
		return s, err
	}
	return s, nil
}

func cloneSection(s Section, maxDepth int) (Section, error) {
	s.Styles = s.Styles.Clone()
	els, err := cloneList(s.Elements, 0, maxDepth)
	if err != nil {
		return s, err
	}
	s.Elements = els
	return s, nil
}

func cloneList(list []Element, depth, maxDepth int) ([]Element, error) {
	if list == nil {
		return nil, nil
	}
	if maxDepth > 0 && depth > maxDepth {
		return nil, errCloneDepth
	}
	out := make([]Element, len(list))
	for i := range list {
		el, err := cloneElement(list[i], depth, maxDepth)
		if err != nil {
			return nil, err
		}
		out[i] = el
	}
	return out, nil
}

func cloneElement(e Element, depth, maxDepth int) (Element, error) {
	e.Styles = e.Styles.Clone()
	e.Attributes = cloneStrings(e.Attributes)
	if e.Layout != nil {
		l := *e.Layout
		e.Layout = &l
	}
	if e.ThemeStyles != nil {
		e.ThemeStyles = append([]string(nil), e.ThemeStyles...)
	}
	children, err := cloneList(e.Children, depth+1, maxDepth)
	if err != nil {
		return e, err
	}
	e.Children = children
	return e, nil
}

// CloneScreen deep-copies a single screen.
func CloneScreen(s Screen) Screen {
	out, _ := cloneScreen(s, 0) // unbounded copies cannot fail
	return out
}

// CloneElement deep-copies a single element subtree.
func CloneElement(e Element) Element {
	out, _ := cloneElement(e, 0, 0)
	return out
}

// Clone returns a copy of the theme with its own palette map.
func (t ThemeSettings) Clone() ThemeSettings {
	t.Colors = cloneStrings(t.Colors)
	return t
}

// Clone returns an independent copy of the style map.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
