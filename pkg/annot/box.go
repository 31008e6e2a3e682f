package annot

import (
	"github.com/holmgr/pagemark/pkg/geom"
)

// Box is one annotated rectangular region on a page.
//
// The rectangle is in document space and always normalized (X1 < X2,
// Y1 < Y2) once committed. The box is owned exclusively by its page's
// list in the Store; everything else (the current selection, listbox
// index mappings) refers to it by its stable ID.
type Box struct {
	// ID identifies the box for the lifetime of the session. IDs are
	// assigned by the store, never reused, and not persisted.
	ID uint64

	// Rect is the region in document-space coordinates.
	Rect geom.Rect

	// Label is the free-form label, DefaultLabel until edited.
	Label string

	// Properties maps property names to a single string value each.
	// Absent names mean the property is unset for this box.
	Properties map[string]string

	// Selected is transient UI state and is not persisted.
	Selected bool
}

// SetProperty assigns a property value, or removes the property when the
// value is empty. This mirrors how the edit dialog commits its fields.
func (b *Box) SetProperty(name, value string) {
	if value == "" {
		delete(b.Properties, name)
		return
	}
	if b.Properties == nil {
		b.Properties = make(map[string]string)
	}
	b.Properties[name] = value
}
