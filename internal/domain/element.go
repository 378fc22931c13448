package domain

// ElementType is the closed set of visual element kinds.
type ElementType string

const (
	ElementText     ElementType = "text"
	ElementButton   ElementType = "button"
	ElementImage    ElementType = "image"
	ElementLink     ElementType = "link"
	ElementInput    ElementType = "input"
	ElementCheckbox ElementType = "checkbox"
	ElementRadio    ElementType = "radio"
	ElementSelect   ElementType = "select"
	ElementTextarea ElementType = "textarea"
	ElementGroup    ElementType = "group"
	ElementProduct  ElementType = "product"
)

// ElementTypes lists every valid element type.
var ElementTypes = []ElementType{
	ElementText, ElementButton, ElementImage, ElementLink, ElementInput,
	ElementCheckbox, ElementRadio, ElementSelect, ElementTextarea,
	ElementGroup, ElementProduct,
}

// Valid reports whether t belongs to the closed type set.
func (t ElementType) Valid() bool {
	for _, v := range ElementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsContainer reports whether elements of this type own children.
func (t ElementType) IsContainer() bool {
	return t == ElementGroup || t == ElementProduct
}

// Element is a single visual unit. Containers own their Children
// exclusively; GroupID on a child names the container holding it.
type Element struct {
	ID          string            `json:"id"`
	Type        ElementType       `json:"type"`
	Content     string            `json:"content"`
	Styles      Style             `json:"styles"`
	Attributes  map[string]string `json:"attributes"`
	SectionID   string            `json:"sectionId"`
	GroupID     string            `json:"groupId,omitempty"`
	IsGroup     bool              `json:"isGroup,omitempty"`
	Children    []Element         `json:"children,omitempty"`
	Layout      *Layout           `json:"layout,omitempty"`
	StyleClass  string            `json:"styleClass,omitempty"`
	ThemeStyles []string          `json:"themeStyles,omitempty"`
}

// HasThemeStyle reports whether key was last written by a theme.
func (e *Element) HasThemeStyle(key string) bool {
	for _, k := range e.ThemeStyles {
		if k == key {
			return true
		}
	}
	return false
}
