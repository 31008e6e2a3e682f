// Package annot implements the annotation model for rectangular region
// annotations over the rasterized pages of a PDF document.
//
// This package provides:
//
// - A bounding-box entity combining geometry with a label and free-form
//   string properties
// - A per-page annotation store with z-ordered hit testing, label color
//   assignment, and a grow-only property vocabulary
// - A document binding that ties the store to a source file via an MD5
//   content checksum and a rasterization DPI, including the bulk geometry
//   rescale performed when the DPI changes
// - JSON serialization of the full annotation state that round-trips
//   bit-exactly
//
// All geometry held by the store is in document space, the pixel space of
// the page rasterized at the bound DPI. View concerns (zoom, scrolling)
// belong to the caller and only enter through the hit-testing functions,
// which accept view-space points together with the current zoom.
//
// Key Types:
//
// - Box: one annotated rectangle with label, properties, and selection
// - Store: the per-page collection plus color and vocabulary state
// - Document: the binding to a source file (path, checksum, DPI, bitmaps)
//
// Main Functions:
//
// - Save / Load: the persisted JSON representation
// - OpenDocument: rasterize a source file and create a fresh binding
package annot

// DefaultLabel is assigned to every newly drawn box until the user edits it.
const DefaultLabel = "No Label"

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 300
