package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a document id is unknown.
var ErrNotFound = errors.New("not found")

// Section ids are fixed roles shared by every screen.
const (
	SectionHeader = "header"
	SectionBody   = "body"
	SectionFooter = "footer"
)

// SectionOrder is the render order of sections within a screen.
var SectionOrder = []string{SectionHeader, SectionBody, SectionFooter}

// Style is a free-form map of camel-cased style properties to CSS values.
type Style map[string]string

// Layout is a flex layout descriptor for sections and containers.
type Layout struct {
	Direction    string `json:"direction"`
	Wrap         string `json:"wrap"`
	Justify      string `json:"justify"`
	AlignItems   string `json:"alignItems"`
	AlignContent string `json:"alignContent"`
	Gap          string `json:"gap"`
}

// Section is a fixed-role layout region holding top-level elements.
type Section struct {
	ID       string    `json:"id"`
	Enabled  bool      `json:"enabled"`
	Elements []Element `json:"elements"`
	Styles   Style     `json:"styles"`
	Layout   Layout    `json:"layout"`
}

// Sections holds the three fixed sections of a screen.
type Sections struct {
	Header Section `json:"header"`
	Body   Section `json:"body"`
	Footer Section `json:"footer"`
}

// Get returns the section with the given role id.
func (s *Sections) Get(id string) (*Section, bool) {
	switch id {
	case SectionHeader:
		return &s.Header, true
	case SectionBody:
		return &s.Body, true
	case SectionFooter:
		return &s.Footer, true
	}
	return nil, false
}

// Screen is one page of the document.
type Screen struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Sections Sections `json:"sections"`
}

// StyleClass is a reusable named style map targeting one element type.
type StyleClass struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ElementType ElementType `json:"elementType"`
	Styles      Style       `json:"styles"`
}

// ThemeSettings is a document-wide palette, typography and sizing preset.
type ThemeSettings struct {
	Colors       map[string]string `json:"colors"`
	FontFamily   string            `json:"fontFamily"`
	FontSize     string            `json:"fontSize"`
	BorderRadius string            `json:"borderRadius"`
	Spacing      string            `json:"spacing"`
}

// ThemeItem is a named theme the user can switch to.
type ThemeItem struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Settings ThemeSettings `json:"settings"`
}

// Document is the full editable quiz.
type Document struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Screens            []Screen       `json:"screens"`
	CurrentScreenIndex int            `json:"currentScreenIndex"`
	Theme              *ThemeSettings `json:"theme,omitempty"`
	Themes             []ThemeItem    `json:"themes"`
	ActiveThemeID      string         `json:"activeThemeId,omitempty"`
	StyleClasses       []StyleClass   `json:"styleClasses"`
	LastEdited         time.Time      `json:"lastEdited"`
}

// CurrentScreen returns the active screen. The invariant on
// CurrentScreenIndex makes this safe for well-formed documents.
func (d *Document) CurrentScreen() *Screen {
	if d.CurrentScreenIndex < 0 || d.CurrentScreenIndex >= len(d.Screens) {
		return nil
	}
	return &d.Screens[d.CurrentScreenIndex]
}

// ScreenByID returns the screen with the given id and its index.
func (d *Document) ScreenByID(id string) (*Screen, int, bool) {
	for i := range d.Screens {
		if d.Screens[i].ID == id {
			return &d.Screens[i], i, true
		}
	}
	return nil, -1, false
}

// StyleClassByID returns the style class with the given id.
func (d *Document) StyleClassByID(id string) (*StyleClass, bool) {
	for i := range d.StyleClasses {
		if d.StyleClasses[i].ID == id {
			return &d.StyleClasses[i], true
		}
	}
	return nil, false
}

// DocumentSummary is one row of the lightweight document index.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LastEdited time.Time `json:"lastEdited"`
}

// DocumentStore is the persistence adapter contract.
type DocumentStore interface {
	Save(ctx context.Context, doc *Document) error
	Load(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]DocumentSummary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
