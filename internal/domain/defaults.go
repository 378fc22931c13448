package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGroupLayout is the layout given to freshly grouped containers.
func DefaultGroupLayout() Layout {
	return Layout{
		Direction:    "row",
		Wrap:         "wrap",
		Justify:      "flex-start",
		AlignItems:   "center",
		AlignContent: "flex-start",
		Gap:          "8px",
	}
}

// DefaultSectionLayout returns the layout a new section starts with.
// Header and footer flow in a row, the body in a column.
func DefaultSectionLayout(sectionID string) Layout {
	switch sectionID {
	case SectionHeader, SectionFooter:
		return Layout{
			Direction:    "row",
			Wrap:         "nowrap",
			Justify:      "space-between",
			AlignItems:   "center",
			AlignContent: "flex-start",
			Gap:          "12px",
		}
	default:
		return Layout{
			Direction:    "column",
			Wrap:         "nowrap",
			Justify:      "flex-start",
			AlignItems:   "stretch",
			AlignContent: "flex-start",
			Gap:          "16px",
		}
	}
}

// NewSection returns an empty section. Only the body starts enabled.
func NewSection(id string) Section {
	return Section{
		ID:       id,
		Enabled:  id == SectionBody,
		Elements: []Element{},
		Styles:   Style{},
		Layout:   DefaultSectionLayout(id),
	}
}

// NewScreen returns a screen with three empty sections.
func NewScreen(name string) Screen {
	return Screen{
		ID:   "screen-" + uuid.NewString(),
		Name: name,
		Sections: Sections{
			Header: NewSection(SectionHeader),
			Body:   NewSection(SectionBody),
			Footer: NewSection(SectionFooter),
		},
	}
}

// NewDocument creates an empty document with a single screen.
func NewDocument(name string) *Document {
	return &Document{
		ID:           uuid.NewString(),
		Name:         name,
		Screens:      []Screen{NewScreen("Screen 1")},
		Themes:       DefaultThemes(),
		StyleClasses: []StyleClass{},
		LastEdited:   time.Now().UTC(),
	}
}

// DuplicateDocument deep-copies doc under a fresh document id. Element and
// screen ids are kept; they only need to be unique within one document.
func DuplicateDocument(doc *Document, name string) *Document {
	cp := Clone(doc)
	cp.ID = uuid.NewString()
	cp.Name = name
	cp.LastEdited = time.Now().UTC()
	return cp
}

// DefaultThemes are the presets every new document offers.
func DefaultThemes() []ThemeItem {
	return []ThemeItem{
		{
			ID:   "light",
			Name: "Light",
			Settings: ThemeSettings{
				Colors: map[string]string{
					"primary":    "#3b82f6",
					"secondary":  "#64748b",
					"background": "#ffffff",
					"text":       "#1f2937",
					"accent":     "#f59e0b",
					"border":     "#d1d5db",
				},
				FontFamily:   "Inter, sans-serif",
				FontSize:     "16px",
				BorderRadius: "6px",
				Spacing:      "16px",
			},
		},
		{
			ID:   "dark",
			Name: "Dark",
			Settings: ThemeSettings{
				Colors: map[string]string{
					"primary":    "#8b5cf6",
					"secondary":  "#94a3b8",
					"background": "#111827",
					"text":       "#f9fafb",
					"accent":     "#22d3ee",
					"border":     "#374151",
				},
				FontFamily:   "Inter, sans-serif",
				FontSize:     "16px",
				BorderRadius: "8px",
				Spacing:      "16px",
			},
		},
	}
}

// DefaultElement returns an element of type t with type-specific content,
// attributes and styles. The caller assigns the id.
func DefaultElement(t ElementType, sectionID string) Element {
	el := Element{
		Type:       t,
		SectionID:  sectionID,
		Styles:     Style{},
		Attributes: map[string]string{},
	}
	switch t {
	case ElementText:
		el.Content = "Text"
		el.Styles["fontSize"] = "16px"
		el.Styles["color"] = "#1f2937"
	case ElementButton:
		el.Content = "Button"
		el.Styles["backgroundColor"] = "#3b82f6"
		el.Styles["color"] = "#ffffff"
		el.Styles["padding"] = "10px 20px"
		el.Styles["borderRadius"] = "6px"
		el.Styles["border"] = "none"
	case ElementImage:
		el.Attributes["src"] = "https://placehold.co/300x200"
		el.Attributes["alt"] = "Image"
		el.Styles["width"] = "300px"
		el.Styles["maxWidth"] = "100%"
	case ElementLink:
		el.Content = "Link"
		el.Attributes["href"] = "#"
		el.Styles["color"] = "#3b82f6"
	case ElementInput:
		el.Attributes["type"] = "text"
		el.Attributes["placeholder"] = "Enter text"
		el.Styles["padding"] = "8px"
		el.Styles["border"] = "1px solid #d1d5db"
		el.Styles["borderRadius"] = "4px"
	case ElementTextarea:
		el.Attributes["placeholder"] = "Enter text"
		el.Attributes["rows"] = "4"
		el.Styles["padding"] = "8px"
		el.Styles["border"] = "1px solid #d1d5db"
		el.Styles["borderRadius"] = "4px"
	case ElementSelect:
		el.Attributes["options"] = "Option 1,Option 2"
		el.Styles["padding"] = "8px"
		el.Styles["border"] = "1px solid #d1d5db"
		el.Styles["borderRadius"] = "4px"
	case ElementCheckbox, ElementRadio:
		el.Content = "Option"
		el.Attributes["name"] = string(t)
	case ElementGroup:
		el.IsGroup = true
		l := DefaultGroupLayout()
		el.Layout = &l
		el.Children = []Element{}
	case ElementProduct:
		el.IsGroup = true
		el.Content = "Product"
		el.Layout = &Layout{
			Direction:    "column",
			Wrap:         "nowrap",
			Justify:      "flex-start",
			AlignItems:   "stretch",
			AlignContent: "flex-start",
			Gap:          "8px",
		}
		el.Children = []Element{}
		el.Styles["padding"] = "16px"
		el.Styles["border"] = "1px solid #d1d5db"
		el.Styles["borderRadius"] = "8px"
	}
	return el
}
