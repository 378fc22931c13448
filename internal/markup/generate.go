// Package markup projects a screen into markup plus a stylesheet for the
// live code view, and reads an edited projection back into element deltas.
package markup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"quizbuilder/internal/domain"
)

// RootID is the fixed id of the screen root in every projection.
const RootID = "quiz-screen"

// SectionPrefix prefixes section container ids.
const SectionPrefix = "section-"

// Projection is the code-view representation of one screen.
type Projection struct {
	ScreenID   string `json:"screenId"`
	Markup     string `json:"markup"`
	Stylesheet string `json:"stylesheet"`
}

// critical lists the style properties inlined on each kind of node so the
// markup renders sensibly without the stylesheet.
var critical = map[domain.ElementType][]string{
	domain.ElementText:     {"color", "fontFamily", "fontSize", "fontWeight", "lineHeight", "textAlign"},
	domain.ElementButton:   {"backgroundColor", "border", "borderRadius", "color", "fontSize", "fontWeight", "padding"},
	domain.ElementImage:    {"borderRadius", "height", "maxWidth", "objectFit", "width"},
	domain.ElementLink:     {"color", "fontSize", "textDecoration"},
	domain.ElementInput:    {"border", "borderColor", "borderRadius", "color", "padding", "width"},
	domain.ElementTextarea: {"border", "borderColor", "borderRadius", "color", "padding", "width"},
	domain.ElementSelect:   {"border", "borderColor", "borderRadius", "color", "padding", "width"},
	domain.ElementCheckbox: {"accentColor", "color"},
	domain.ElementRadio:    {"accentColor", "color"},
	domain.ElementGroup:    {"backgroundColor", "border", "borderRadius", "padding"},
	domain.ElementProduct:  {"backgroundColor", "border", "borderRadius", "padding"},
}

var criticalSection = []string{"backgroundColor", "backgroundImage", "color", "minHeight", "padding"}

func tagFor(t domain.ElementType) string {
	switch t {
	case domain.ElementText:
		return "p"
	case domain.ElementButton:
		return "button"
	case domain.ElementImage:
		return "img"
	case domain.ElementLink:
		return "a"
	}
	return "div"
}

// Generate builds the markup and stylesheet projection of a screen. An
// empty screenID selects the current screen.
func Generate(doc *domain.Document, screenID string) (Projection, error) {
	scr, err := screenOf(doc, screenID)
	if err != nil {
		return Projection{}, err
	}
	m, err := generateMarkup(doc.Theme, scr)
	if err != nil {
		return Projection{}, err
	}
	return Projection{
		ScreenID:   scr.ID,
		Markup:     m,
		Stylesheet: stylesheet(doc.Theme, scr),
	}, nil
}

func screenOf(doc *domain.Document, screenID string) (*domain.Screen, error) {
	if doc == nil {
		return nil, fmt.Errorf("generate: nil document")
	}
	if screenID == "" {
		if scr := doc.CurrentScreen(); scr != nil {
			return scr, nil
		}
		return nil, fmt.Errorf("generate: document %s has no current screen", doc.ID)
	}
	scr, _, ok := doc.ScreenByID(screenID)
	if !ok {
		return nil, fmt.Errorf("generate: screen %s: %w", screenID, domain.ErrNotFound)
	}
	return scr, nil
}

func generateMarkup(theme *domain.ThemeSettings, scr *domain.Screen) (string, error) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true

	root := doc.CreateElement("div")
	root.CreateAttr("id", RootID)
	root.CreateAttr("data-screen-id", scr.ID)

	for _, secID := range domain.SectionOrder {
		sec, _ := scr.Sections.Get(secID)
		if !sec.Enabled {
			continue
		}
		node := root.CreateElement("div")
		node.CreateAttr("id", SectionPrefix+secID)
		layoutAttrs(node, sec.Layout)
		if style := inlineStyle(theme, sec.Styles, criticalSection); style != "" {
			node.CreateAttr("style", style)
		}
		for i := range sec.Elements {
			writeElement(node, theme, &sec.Elements[i])
		}
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("generate: write markup: %w", err)
	}
	return out, nil
}

func layoutAttrs(node *etree.Element, l domain.Layout) {
	node.CreateAttr("data-direction", l.Direction)
	node.CreateAttr("data-wrap", l.Wrap)
	node.CreateAttr("data-justify", l.Justify)
	node.CreateAttr("data-align-items", l.AlignItems)
	node.CreateAttr("data-align-content", l.AlignContent)
	node.CreateAttr("data-gap", l.Gap)
}

func writeElement(parent *etree.Element, theme *domain.ThemeSettings, el *domain.Element) {
	node := parent.CreateElement(tagFor(el.Type))
	node.CreateAttr("id", el.ID)
	node.CreateAttr("data-type", string(el.Type))

	switch el.Type {
	case domain.ElementImage:
		node.CreateAttr("src", el.Attributes["src"])
		node.CreateAttr("alt", el.Attributes["alt"])
	case domain.ElementLink:
		node.CreateAttr("href", el.Attributes["href"])
	}
	if el.IsGroup && el.Layout != nil {
		layoutAttrs(node, *el.Layout)
	}
	if style := inlineStyle(theme, el.Styles, critical[el.Type]); style != "" {
		node.CreateAttr("style", style)
	}

	if el.IsGroup {
		for i := range el.Children {
			writeElement(node, theme, &el.Children[i])
		}
		return
	}
	if el.Type != domain.ElementImage && el.Content != "" {
		node.SetText(el.Content)
	}
}

// inlineStyle renders the allowed keys of styles as a style attribute, with
// theme references resolved.
func inlineStyle(theme *domain.ThemeSettings, styles domain.Style, allow []string) string {
	var parts []string
	for _, k := range allow {
		v, ok := styles[k]
		if !ok || v == "" {
			continue
		}
		parts = append(parts, kebab(k)+": "+theme.Resolve(v))
	}
	return strings.Join(parts, "; ")
}

func sortedStyleKeys(s domain.Style) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
