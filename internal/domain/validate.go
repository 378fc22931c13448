package domain

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var ErrInvalidDocument = errors.New("invalid document")

// Validate checks the structural invariants of doc and reports every
// violation it finds.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	var err error
	if len(doc.Screens) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: no screens", ErrInvalidDocument))
	} else if doc.CurrentScreenIndex < 0 || doc.CurrentScreenIndex >= len(doc.Screens) {
		err = multierr.Append(err, fmt.Errorf("%w: current screen index %d out of range", ErrInvalidDocument, doc.CurrentScreenIndex))
	}

	seen := make(map[string]bool)
	for _, scr := range doc.Screens {
		if !scr.Sections.Body.Enabled {
			err = multierr.Append(err, fmt.Errorf("%w: screen %s: body disabled", ErrInvalidDocument, scr.ID))
		}
		for _, secID := range SectionOrder {
			sec, _ := scr.Sections.Get(secID)
			if sec.ID != secID {
				err = multierr.Append(err, fmt.Errorf("%w: screen %s: section %q stored as %q", ErrInvalidDocument, scr.ID, secID, sec.ID))
			}
			err = multierr.Append(err, validateList(sec.Elements, secID, "", seen))
		}
	}
	return err
}

func validateList(list []Element, sectionID, parentID string, seen map[string]bool) error {
	var err error
	for i := range list {
		el := &list[i]
		if el.ID == "" {
			err = multierr.Append(err, fmt.Errorf("%w: element without id in %s", ErrInvalidDocument, sectionID))
		} else if seen[el.ID] {
			err = multierr.Append(err, fmt.Errorf("%w: duplicate element id %s", ErrInvalidDocument, el.ID))
		}
		seen[el.ID] = true
		if !el.Type.Valid() {
			err = multierr.Append(err, fmt.Errorf("%w: element %s: unknown type %q", ErrInvalidDocument, el.ID, el.Type))
		}
		if el.GroupID != parentID {
			err = multierr.Append(err, fmt.Errorf("%w: element %s: groupId %q, held by %q", ErrInvalidDocument, el.ID, el.GroupID, parentID))
		}
		if el.SectionID != sectionID {
			err = multierr.Append(err, fmt.Errorf("%w: element %s: sectionId %q, held by %q", ErrInvalidDocument, el.ID, el.SectionID, sectionID))
		}
		if len(el.Children) > 0 && !el.IsGroup {
			err = multierr.Append(err, fmt.Errorf("%w: element %s: children on a non-container", ErrInvalidDocument, el.ID))
		}
		err = multierr.Append(err, validateList(el.Children, sectionID, el.ID, seen))
	}
	return err
}
