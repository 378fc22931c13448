package domain

import (
	"sort"
	"strings"
)

const themeRefPrefix = "var(--theme-"

// ThemeRef returns the symbolic reference for a theme token, e.g.
// "var(--theme-primary)".
func ThemeRef(token string) string {
	return themeRefPrefix + token + ")"
}

// ParseThemeRef extracts the token from a symbolic theme reference.
func ParseThemeRef(value string) (string, bool) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, themeRefPrefix) || !strings.HasSuffix(v, ")") {
		return "", false
	}
	token := v[len(themeRefPrefix) : len(v)-1]
	if token == "" {
		return "", false
	}
	return token, true
}

// Token returns the literal value of a theme token.
func (t *ThemeSettings) Token(token string) (string, bool) {
	if t == nil {
		return "", false
	}
	switch token {
	case "font-family":
		return t.FontFamily, t.FontFamily != ""
	case "font-size":
		return t.FontSize, t.FontSize != ""
	case "border-radius":
		return t.BorderRadius, t.BorderRadius != ""
	case "spacing":
		return t.Spacing, t.Spacing != ""
	}
	v, ok := t.Colors[token]
	return v, ok && v != ""
}

// Resolve replaces a symbolic theme reference with its literal value.
// Values that are not references, or reference unknown tokens, are returned
// unchanged.
func (t *ThemeSettings) Resolve(value string) string {
	token, ok := ParseThemeRef(value)
	if !ok {
		return value
	}
	if lit, ok := t.Token(token); ok {
		return lit
	}
	return value
}

// themeKeys maps each element type to the style properties a theme controls
// and the token feeding each of them.
var themeKeys = map[ElementType]map[string]string{
	ElementText: {
		"color":      "text",
		"fontFamily": "font-family",
		"fontSize":   "font-size",
	},
	ElementButton: {
		"backgroundColor": "primary",
		"color":           "background",
		"borderRadius":    "border-radius",
		"fontFamily":      "font-family",
	},
	ElementLink: {
		"color": "primary",
	},
	ElementInput: {
		"borderColor":  "border",
		"borderRadius": "border-radius",
		"fontFamily":   "font-family",
		"color":        "text",
	},
	ElementTextarea: {
		"borderColor":  "border",
		"borderRadius": "border-radius",
		"fontFamily":   "font-family",
		"color":        "text",
	},
	ElementSelect: {
		"borderColor":  "border",
		"borderRadius": "border-radius",
		"fontFamily":   "font-family",
		"color":        "text",
	},
	ElementCheckbox: {"accentColor": "primary"},
	ElementRadio:    {"accentColor": "primary"},
	ElementImage:    {"borderRadius": "border-radius"},
	ElementProduct: {
		"backgroundColor": "background",
		"borderRadius":    "border-radius",
	},
}

// ThemeKeys returns the theme-controlled style properties for t, sorted,
// with the token each one resolves from.
func ThemeKeys(t ElementType) ([]string, map[string]string) {
	m := themeKeys[t]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, m
}
