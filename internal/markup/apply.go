package markup

import (
	"quizbuilder/internal/domain"
	"quizbuilder/internal/editor"
)

// Patch converts a delta into an update for the matching element of doc.
// It reports false when the id is unknown or nothing would change.
//
// A stylesheet value equal to the resolved form of the element's current
// theme reference keeps the reference. A delta carrying styles is treated as
// the complete style map, so keys missing from it are removed. The flex
// declarations of a group rule update its Layout, not its styles.
func Patch(doc *domain.Document, d Delta) (editor.ElementPatch, bool) {
	el, ok := domain.FindElement(doc, d.ID)
	if !ok {
		return editor.ElementPatch{}, false
	}
	var patch editor.ElementPatch

	if d.Content != nil && !el.IsGroup && el.Type != domain.ElementImage && *d.Content != el.Content {
		c := *d.Content
		patch.Content = &c
	}

	if d.Styles != nil {
		styles, layout := splitLayout(el, d.Styles)
		patch.Layout = layout

		merge := domain.Style{}
		for k, v := range styles {
			cur, had := el.Styles[k]
			if had && (cur == v || doc.Theme.Resolve(cur) == v) {
				continue
			}
			merge[k] = v
		}
		for k, v := range el.Styles {
			if _, kept := styles[k]; !kept && v != "" {
				merge[k] = ""
			}
		}
		if len(merge) > 0 {
			patch.MergeStyles = merge
		}
	}

	if len(d.Attributes) > 0 {
		attrs := make(map[string]string, len(el.Attributes)+len(d.Attributes))
		for k, v := range el.Attributes {
			attrs[k] = v
		}
		changed := false
		for k, v := range d.Attributes {
			if attrs[k] != v {
				attrs[k] = v
				changed = true
			}
		}
		if changed {
			patch.Attributes = attrs
		}
	}

	return patch, !patch.Empty()
}

// splitLayout takes the declarations a group rule derives from
// Element.Layout out of styles and returns the layout they describe, or nil
// when it is unchanged. Keys the group also carries as explicit styles stay
// styles.
func splitLayout(el *domain.Element, styles domain.Style) (domain.Style, *domain.Layout) {
	if !el.IsGroup || el.Layout == nil {
		return styles, nil
	}
	rest := make(domain.Style, len(styles))
	for k, v := range styles {
		rest[k] = v
	}
	l := *el.Layout
	take := func(prop string, dst *string) {
		if _, own := el.Styles[prop]; own {
			return
		}
		if v, ok := rest[prop]; ok {
			*dst = v
			delete(rest, prop)
		}
	}
	take("flexDirection", &l.Direction)
	take("flexWrap", &l.Wrap)
	take("justifyContent", &l.Justify)
	take("alignItems", &l.AlignItems)
	take("gap", &l.Gap)
	if _, own := el.Styles["display"]; !own {
		delete(rest, "display")
	}
	if l == *el.Layout {
		return rest, nil
	}
	return rest, &l
}

// Apply feeds every delta through editor.UpdateElement and returns the
// resulting document with the number of elements changed.
func Apply(doc *domain.Document, deltas []Delta) (*domain.Document, int) {
	changed := 0
	for _, d := range deltas {
		patch, ok := Patch(doc, d)
		if !ok {
			continue
		}
		next, desc := editor.UpdateElement(doc, d.ID, patch)
		if desc == "" {
			continue
		}
		doc = next
		changed++
	}
	return doc, changed
}
