package markup

import (
	"strings"

	"quizbuilder/internal/domain"
)

// Stylesheet renders one rule per enabled section and per element of the
// screen, each carrying the complete style map. Rules are scoped under the
// screen id.
func Stylesheet(doc *domain.Document, screenID string) (string, error) {
	scr, err := screenOf(doc, screenID)
	if err != nil {
		return "", err
	}
	return stylesheet(doc.Theme, scr), nil
}

func scopeSelector(screenID string) string {
	return `#` + RootID + `[data-screen-id="` + screenID + `"]`
}

func stylesheet(theme *domain.ThemeSettings, scr *domain.Screen) string {
	var b strings.Builder
	scope := scopeSelector(scr.ID)

	for _, secID := range domain.SectionOrder {
		sec, _ := scr.Sections.Get(secID)
		if !sec.Enabled {
			continue
		}
		decls := []string{
			"display: flex",
			"flex-direction: " + sec.Layout.Direction,
			"flex-wrap: " + sec.Layout.Wrap,
			"justify-content: " + sec.Layout.Justify,
			"align-items: " + sec.Layout.AlignItems,
			"align-content: " + sec.Layout.AlignContent,
			"gap: " + sec.Layout.Gap,
		}
		decls = append(decls, declarations(theme, sec.Styles)...)
		writeRule(&b, scope+" #"+SectionPrefix+secID, decls)

		domain.WalkElements(sec.Elements, func(el *domain.Element) bool {
			var decls []string
			if el.IsGroup && el.Layout != nil {
				decls = append(decls,
					"display: flex",
					"flex-direction: "+el.Layout.Direction,
					"flex-wrap: "+el.Layout.Wrap,
					"justify-content: "+el.Layout.Justify,
					"align-items: "+el.Layout.AlignItems,
					"gap: "+el.Layout.Gap,
				)
			}
			decls = append(decls, declarations(theme, el.Styles)...)
			writeRule(&b, scope+" #"+el.ID, decls)
			return true
		})
	}
	return b.String()
}

func declarations(theme *domain.ThemeSettings, styles domain.Style) []string {
	decls := make([]string, 0, len(styles))
	for _, k := range sortedStyleKeys(styles) {
		v := styles[k]
		if v == "" {
			continue
		}
		decls = append(decls, kebab(k)+": "+theme.Resolve(v))
	}
	return decls
}

func writeRule(b *strings.Builder, selector string, decls []string) {
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, d := range decls {
		b.WriteString("  ")
		b.WriteString(d)
		b.WriteString(";\n")
	}
	b.WriteString("}\n\n")
}
