package editor

import (
	"fmt"

	"quizbuilder/internal/domain"
)

// RenameDocument changes the document name.
func RenameDocument(doc *domain.Document, name string) (*domain.Document, string) {
	if doc == nil || name == "" || doc.Name == name {
		return doc, ""
	}
	out := domain.Clone(doc)
	out.Name = name
	return out, fmt.Sprintf("Rename document to %s", name)
}

// ── Screens ──────────────────────────────────────────────────

// AddScreen appends an empty screen and makes it current.
func AddScreen(doc *domain.Document, name string) (*domain.Document, string, string) {
	if doc == nil {
		return doc, "", ""
	}
	out := domain.Clone(doc)
	if name == "" {
		name = fmt.Sprintf("Screen %d", len(out.Screens)+1)
	}
	scr := domain.NewScreen(name)
	out.Screens = append(out.Screens, scr)
	out.CurrentScreenIndex = len(out.Screens) - 1
	return out, scr.ID, fmt.Sprintf("Add screen %s", name)
}

// RemoveScreen deletes a screen. The last remaining screen cannot be
// removed.
func RemoveScreen(doc *domain.Document, screenID string) (*domain.Document, string) {
	if doc == nil || len(doc.Screens) <= 1 {
		return doc, ""
	}
	_, idx, ok := doc.ScreenByID(screenID)
	if !ok {
		return doc, ""
	}
	out := domain.Clone(doc)
	name := out.Screens[idx].Name
	out.Screens = append(out.Screens[:idx], out.Screens[idx+1:]...)
	switch {
	case idx < out.CurrentScreenIndex:
		out.CurrentScreenIndex--
	case out.CurrentScreenIndex >= len(out.Screens):
		out.CurrentScreenIndex = len(out.Screens) - 1
	}
	return out, fmt.Sprintf("Remove screen %s", name)
}

// RenameScreen changes a screen's display name.
func RenameScreen(doc *domain.Document, screenID, name string) (*domain.Document, string) {
	if doc == nil || name == "" {
		return doc, ""
	}
	scr, idx, ok := doc.ScreenByID(screenID)
	if !ok || scr.Name == name {
		return doc, ""
	}
	out := domain.Clone(doc)
	out.Screens[idx].Name = name
	return out, fmt.Sprintf("Rename screen to %s", name)
}

// DuplicateScreen inserts a copy of the screen right after it. Every element
// in the copy gets a fresh id.
func DuplicateScreen(doc *domain.Document, screenID string) (*domain.Document, string, string) {
	if doc == nil {
		return doc, "", ""
	}
	_, idx, ok := doc.ScreenByID(screenID)
	if !ok {
		return doc, "", ""
	}
	out := domain.Clone(doc)
	cp := domain.CloneScreen(out.Screens[idx])
	fresh := domain.NewScreen(cp.Name + " (copy)")
	cp.ID = fresh.ID
	cp.Name = fresh.Name
	for _, secID := range domain.SectionOrder {
		sec, _ := cp.Sections.Get(secID)
		for i := range sec.Elements {
			reassignIDs(&sec.Elements[i], "", secID)
		}
	}

	screens := make([]domain.Screen, 0, len(out.Screens)+1)
	screens = append(screens, out.Screens[:idx+1]...)
	screens = append(screens, cp)
	screens = append(screens, out.Screens[idx+1:]...)
	out.Screens = screens
	if out.CurrentScreenIndex > idx {
		out.CurrentScreenIndex++
	}
	return out, cp.ID, fmt.Sprintf("Duplicate screen %s", doc.Screens[idx].Name)
}

// SetCurrentScreen makes the screen with screenID current.
func SetCurrentScreen(doc *domain.Document, screenID string) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	_, idx, ok := doc.ScreenByID(screenID)
	if !ok || idx == doc.CurrentScreenIndex {
		return doc, ""
	}
	out := domain.Clone(doc)
	out.CurrentScreenIndex = idx
	return out, "Switch screen"
}

// ── Sections ─────────────────────────────────────────────────

// SetSectionEnabled toggles a header or footer. The body stays enabled.
func SetSectionEnabled(doc *domain.Document, screenID, sectionID string, enabled bool) (*domain.Document, string) {
	if doc == nil || (sectionID == domain.SectionBody && !enabled) {
		return doc, ""
	}
	si, ok := resolveScreen(doc, screenID)
	if !ok {
		return doc, ""
	}
	sec, ok := doc.Screens[si].Sections.Get(sectionID)
	if !ok || sec.Enabled == enabled {
		return doc, ""
	}
	out := domain.Clone(doc)
	outSec, _ := out.Screens[si].Sections.Get(sectionID)
	outSec.Enabled = enabled
	if enabled {
		return out, fmt.Sprintf("Enable %s", sectionID)
	}
	return out, fmt.Sprintf("Disable %s", sectionID)
}

// UpdateSectionLayout replaces a section's layout.
func UpdateSectionLayout(doc *domain.Document, screenID, sectionID string, layout domain.Layout) (*domain.Document, string) {
	if doc == nil {
		return doc, ""
	}
	si, ok := resolveScreen(doc, screenID)
	if !ok {
		return doc, ""
	}
	sec, ok := doc.Screens[si].Sections.Get(sectionID)
	if !ok || sec.Layout == layout {
		return doc, ""
	}
	out := domain.Clone(doc)
	outSec, _ := out.Screens[si].Sections.Get(sectionID)
	outSec.Layout = layout
	return out, fmt.Sprintf("Update %s layout", sectionID)
}

// UpdateSectionStyles merges styles into a section's style map. An empty
// value deletes the key.
func UpdateSectionStyles(doc *domain.Document, screenID, sectionID string, styles domain.Style) (*domain.Document, string) {
	if doc == nil || len(styles) == 0 {
		return doc, ""
	}
	si, ok := resolveScreen(doc, screenID)
	if !ok {
		return doc, ""
	}
	sec, ok := doc.Screens[si].Sections.Get(sectionID)
	if !ok {
		return doc, ""
	}
	changed := false
	for k, v := range styles {
		if cur, set := sec.Styles[k]; (v == "" && set) || (v != "" && cur != v) {
			changed = true
		}
	}
	if !changed {
		return doc, ""
	}
	out := domain.Clone(doc)
	outSec, _ := out.Screens[si].Sections.Get(sectionID)
	if outSec.Styles == nil {
		outSec.Styles = domain.Style{}
	}
	for _, k := range sortedKeys(styles) {
		if v := styles[k]; v == "" {
			delete(outSec.Styles, k)
		} else {
			outSec.Styles[k] = v
		}
	}
	return out, fmt.Sprintf("Update %s styles", sectionID)
}
