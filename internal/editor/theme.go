package editor

import (
	"reflect"
	"sort"

	"quizbuilder/internal/domain"
)

// ThemeOptions selects how a theme is re-applied.
type ThemeOptions struct {
	// ElementIDs limits the pass to these elements; empty means all.
	ElementIDs []string
	// ResetAll drops style classes and every style key the theme does not
	// produce.
	ResetAll bool
	// PreserveOverrides leaves manually set values of theme keys alone.
	PreserveOverrides bool
}

// ApplyThemeToElements rewrites the theme-controlled style keys of each
// eligible element from the document theme.
func ApplyThemeToElements(doc *domain.Document, opts ThemeOptions) (*domain.Document, string) {
	if doc == nil || doc.Theme == nil {
		return doc, ""
	}
	var only map[string]bool
	if len(opts.ElementIDs) > 0 {
		only = make(map[string]bool, len(opts.ElementIDs))
		for _, id := range opts.ElementIDs {
			only[id] = true
		}
	}

	out := domain.Clone(doc)
	domain.Walk(out, func(_ *domain.Screen, _ string, el *domain.Element) bool {
		if only == nil || only[el.ID] {
			overlayTheme(el, out.Theme, opts.ResetAll, opts.PreserveOverrides)
		}
		return true
	})
	if reflect.DeepEqual(doc, out) {
		return doc, ""
	}
	if opts.ResetAll {
		return out, "Reset styles to theme"
	}
	return out, "Apply theme"
}

// overlayTheme writes the symbolic theme reference for every key the theme
// controls on el's type and records those keys in ThemeStyles.
func overlayTheme(el *domain.Element, theme *domain.ThemeSettings, resetAll, preserve bool) {
	keys, tokens := domain.ThemeKeys(el.Type)
	if resetAll {
		el.StyleClass = ""
		el.Styles = domain.Style{}
		el.ThemeStyles = nil
	}
	if len(keys) == 0 {
		return
	}
	if el.Styles == nil {
		el.Styles = domain.Style{}
	}

	applied := make(map[string]bool, len(el.ThemeStyles)+len(keys))
	for _, k := range el.ThemeStyles {
		applied[k] = true
	}
	for _, k := range keys {
		if _, ok := theme.Token(tokens[k]); !ok {
			continue
		}
		if _, set := el.Styles[k]; preserve && set && !applied[k] {
			continue
		}
		el.Styles[k] = domain.ThemeRef(tokens[k])
		applied[k] = true
	}

	tracked := make([]string, 0, len(applied))
	for k := range applied {
		tracked = append(tracked, k)
	}
	sort.Strings(tracked)
	el.ThemeStyles = tracked
}

// SetActiveTheme switches the document to one of its named themes and
// re-applies it to every element, keeping manual overrides.
func SetActiveTheme(doc *domain.Document, themeID string) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	var item *domain.ThemeItem
	for i := range doc.Themes {
		if doc.Themes[i].ID == themeID {
			item = &doc.Themes[i]
			break
		}
	}
	if item == nil {
		return doc, ""
	}

	staged := domain.Clone(doc)
	settings := item.Settings.Clone()
	staged.Theme = &settings
	staged.ActiveThemeID = themeID

	out, _ := ApplyThemeToElements(staged, ThemeOptions{PreserveOverrides: true})
	if reflect.DeepEqual(doc, out) {
		return doc, ""
	}
	return out, "Switch theme to " + item.Name
}
