package markup

import (
	"strings"
	"unicode"
)

// kebab turns a camel-cased style property into its CSS form:
// backgroundColor -> background-color, WebkitAppearance -> -webkit-appearance.
func kebab(prop string) string {
	var b strings.Builder
	for _, r := range prop {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// camel turns a hyphenated CSS property into its camel-cased form.
func camel(prop string) string {
	prop = strings.TrimSpace(strings.ToLower(prop))
	if prop == "" || strings.HasPrefix(prop, "--") {
		return ""
	}
	var b strings.Builder
	upper := false
	for _, r := range prop {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
