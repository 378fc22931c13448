package editor

import (
	"fmt"
	"reflect"

	"quizbuilder/internal/domain"
)

// ApplyStyleClass points each element at classID and merges the class
// styles into the element's own map. Elements whose type the class does not
// target are skipped. Keys written by the class stop being theme-tracked.
func ApplyStyleClass(doc *domain.Document, ids []string, classID string) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	class, ok := doc.StyleClassByID(classID)
	if !ok {
		return doc, ""
	}

	out := domain.Clone(doc)
	for _, id := range dedupe(ids) {
		el, ok := domain.FindElement(out, id)
		if !ok {
			continue
		}
		if class.ElementType != "" && class.ElementType != el.Type {
			continue
		}
		if el.StyleClass != "" && el.StyleClass != classID {
			if prev, ok := out.StyleClassByID(el.StyleClass); ok {
				stripClassStyles(el, prev.Styles)
			}
		}
		if el.Styles == nil {
			el.Styles = domain.Style{}
		}
		for k, v := range class.Styles {
			el.Styles[k] = v
		}
		el.ThemeStyles = withoutKeys(el.ThemeStyles, class.Styles)
		el.StyleClass = classID
	}
	if reflect.DeepEqual(doc, out) {
		return doc, ""
	}
	return out, fmt.Sprintf("Apply class %s", class.Name)
}

// RemoveStyleClass clears the class reference of each element and drops the
// style values that still equal the class values. Local edits made after
// the class was applied survive.
func RemoveStyleClass(doc *domain.Document, ids []string) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	out := domain.Clone(doc)
	changed := false
	for _, id := range dedupe(ids) {
		el, ok := domain.FindElement(out, id)
		if !ok || el.StyleClass == "" {
			continue
		}
		if class, ok := out.StyleClassByID(el.StyleClass); ok {
			stripClassStyles(el, class.Styles)
		}
		el.StyleClass = ""
		changed = true
	}
	if !changed {
		return doc, ""
	}
	return out, "Remove class"
}

func stripClassStyles(el *domain.Element, classStyles domain.Style) {
	for k, v := range classStyles {
		if el.Styles[k] == v {
			delete(el.Styles, k)
		}
	}
}

func withoutKeys(keys []string, drop domain.Style) []string {
	if len(keys) == 0 {
		return keys
	}
	var out []string
	for _, k := range keys {
		if _, ok := drop[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// AddStyleClass registers a new style class and returns its id.
func AddStyleClass(doc *domain.Document, name string, elementType domain.ElementType, styles domain.Style) (*domain.Document, string, string) {
	if doc == nil || name == "" {
		return doc, "", ""
	}
	if elementType != "" && !elementType.Valid() {
		return doc, "", ""
	}
	out := domain.Clone(doc)
	class := domain.StyleClass{
		ID:          NewStyleClassID(),
		Name:        name,
		ElementType: elementType,
		Styles:      styles.Clone(),
	}
	if class.Styles == nil {
		class.Styles = domain.Style{}
	}
	out.StyleClasses = append(out.StyleClasses, class)
	return out, class.ID, fmt.Sprintf("Add class %s", name)
}

// UpdateStyleClass replaces the class styles and carries the change into
// every element still holding the old class values.
func UpdateStyleClass(doc *domain.Document, classID string, styles domain.Style) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	old, ok := doc.StyleClassByID(classID)
	if !ok || reflect.DeepEqual(old.Styles, styles) {
		return doc, ""
	}

	out := domain.Clone(doc)
	class, _ := out.StyleClassByID(classID)
	prev := class.Styles
	class.Styles = styles.Clone()
	if class.Styles == nil {
		class.Styles = domain.Style{}
	}
	domain.Walk(out, func(_ *domain.Screen, _ string, el *domain.Element) bool {
		if el.StyleClass != classID {
			return true
		}
		stripClassStyles(el, prev)
		if el.Styles == nil {
			el.Styles = domain.Style{}
		}
		for k, v := range class.Styles {
			if _, local := el.Styles[k]; !local {
				el.Styles[k] = v
			}
		}
		return true
	})
	return out, fmt.Sprintf("Update class %s", class.Name)
}

// DeleteStyleClass removes a class. Elements referencing it keep their
// current styles but lose the reference.
func DeleteStyleClass(doc *domain.Document, classID string) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	class, ok := doc.StyleClassByID(classID)
	if !ok {
		return doc, ""
	}
	name := class.Name

	out := domain.Clone(doc)
	kept := out.StyleClasses[:0]
	for _, c := range out.StyleClasses {
		if c.ID != classID {
			kept = append(kept, c)
		}
	}
	out.StyleClasses = kept
	domain.Walk(out, func(_ *domain.Screen, _ string, el *domain.Element) bool {
		if el.StyleClass == classID {
			el.StyleClass = ""
		}
		return true
	})
	return out, fmt.Sprintf("Delete class %s", name)
}
