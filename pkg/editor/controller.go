// Package editor implements the interaction state machine that turns
// primitive pointer and list events into operations on the annotation
// store.
//
// The controller is UI-agnostic: the presentation layer forwards
// pointer-down/move/up points (already converted to the canvas's logical
// scrollable coordinate space), wheel ticks, and list events, then
// re-renders from the store. Dialog boxes and delete confirmations are
// supplied by the caller as functions, so the machine itself never
// blocks on user interaction.
//
// Exactly one of the states Idle, Drawing, Moving, Resizing is active at
// any time. The current selection is orthogonal to the machine: a box
// can remain selected while the controller is idle.
package editor

import (
	"fmt"
	"math"
	"strings"

	"github.com/holmgr/pagemark/pkg/annot"
	"github.com/holmgr/pagemark/pkg/geom"
)

// MinDragThreshold is the minimum drag extent, in view pixels, below
// which a draw gesture is treated as a simple deselecting click. The
// same constant clamps resize gestures so a box can never collapse or
// invert; there it is applied in document units after the pointer delta
// is converted, matching the behavior annotations were created with.
const MinDragThreshold = 5

// State identifies the active interaction mode.
type State int

const (
	// Idle means no drag gesture is in progress.
	Idle State = iota
	// Drawing means a new rectangle is being dragged out.
	Drawing
	// Moving means the selected box is being dragged.
	Moving
	// Resizing means the selected box's bottom-right corner is being dragged.
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EditResult carries the values committed by an edit dialog.
type EditResult struct {
	Label      string
	Properties map[string]string
}

// DialogFunc is the external edit affordance. It receives the box being
// edited and the current vocabulary for autocompletion, and reports the
// edited values plus whether the user confirmed.
type DialogFunc func(box *annot.Box, vocab map[string][]string) (EditResult, bool)

// ConfirmFunc is the external yes/no confirmation affordance.
type ConfirmFunc func(prompt string) bool

// Controller interprets primitive UI events against an annotation store.
// All points it receives are view-space.
type Controller struct {
	store *annot.Store
	page  int
	zoom  float64

	state    State
	selected uint64 // selected box ID, 0 = none

	drawStart geom.Point // view-space drag origin while Drawing
	drawCur   geom.Point // view-space current corner while Drawing

	moveStart geom.Point // view-space, updated each tick while Moving

	resizeStart     geom.Point // view-space pointer-down while Resizing
	resizeInitialBR geom.Point // document-space bottom-right at gesture start
}

// NewController creates a controller over a store, positioned on page 1
// at zoom 1.0.
func NewController(store *annot.Store) *Controller {
	return &Controller{store: store, page: 1, zoom: 1.0}
}

// State returns the active interaction state.
func (c *Controller) State() State { return c.state }

// Page returns the current 1-based page number.
func (c *Controller) Page() int { return c.page }

// SetPage switches the current page. Gestures never span pages, so any
// selection is dropped. Unknown pages are ignored.
func (c *Controller) SetPage(page int) {
	if !c.store.HasPage(page) {
		return
	}
	if page != c.page {
		c.DeselectAll()
	}
	c.page = page
}

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor directly, e.g. from an auto-fit
// computation. Non-positive values are ignored.
func (c *Controller) SetZoom(zoom float64) {
	if zoom > 0 {
		c.zoom = zoom
	}
}

// Wheel applies one zoom step: in for a positive direction, out for a
// negative one. Selection and drag state are untouched; the caller
// re-renders everything from document-space coordinates at the new zoom,
// so repeated zooming never accumulates drift.
func (c *Controller) Wheel(direction int) {
	if direction > 0 {
		c.zoom *= geom.ZoomStep
	} else if direction < 0 {
		c.zoom /= geom.ZoomStep
	}
}

// Selected returns the currently selected box, or nil.
func (c *Controller) Selected() *annot.Box {
	if c.selected == 0 {
		return nil
	}
	index := c.store.IndexOf(c.page, c.selected)
	if index < 0 {
		c.selected = 0
		return nil
	}
	return c.store.BoxAt(c.page, index)
}

// DeselectAll clears the selection flag on every box of the current page.
func (c *Controller) DeselectAll() {
	for _, box := range c.store.Boxes(c.page) {
		box.Selected = false
	}
	c.selected = 0
}

func (c *Controller) selectBox(box *annot.Box) {
	c.DeselectAll()
	box.Selected = true
	c.selected = box.ID
}

// PointerDown begins a gesture at the view-space point p.
//
// Priority order: the resize anchor of the selected box, then the
// topmost box under the pointer (select and start moving), then empty
// canvas (deselect and start drawing a new rectangle).
func (c *Controller) PointerDown(p geom.Point) {
	if c.state != Idle {
		return
	}

	if sel := c.Selected(); sel != nil && sel.Rect.OnAnchor(p, c.zoom) {
		c.state = Resizing
		c.resizeStart = p
		c.resizeInitialBR = geom.Point{X: sel.Rect.X2, Y: sel.Rect.Y2}
		return
	}

	if hit := c.store.HitTest(c.page, p, c.zoom); hit != nil {
		c.selectBox(hit)
		c.state = Moving
		c.moveStart = p
		return
	}

	c.DeselectAll()
	c.state = Drawing
	c.drawStart = p
	c.drawCur = p
}

// PointerMove continues the active gesture at the view-space point p.
// In Idle it does nothing.
func (c *Controller) PointerMove(p geom.Point) {
	switch c.state {
	case Resizing:
		sel := c.Selected()
		if sel == nil {
			return
		}
		delta := p.Sub(c.resizeStart).ToDoc(c.zoom)
		br := c.resizeInitialBR.Add(delta)
		if br.X-sel.Rect.X1 < MinDragThreshold {
			br.X = sel.Rect.X1 + MinDragThreshold
		}
		if br.Y-sel.Rect.Y1 < MinDragThreshold {
			br.Y = sel.Rect.Y1 + MinDragThreshold
		}
		sel.Rect.X2 = br.X
		sel.Rect.Y2 = br.Y

	case Moving:
		sel := c.Selected()
		if sel == nil {
			return
		}
		delta := p.Sub(c.moveStart).ToDoc(c.zoom)
		sel.Rect = sel.Rect.Translate(delta)
		c.moveStart = p

	case Drawing:
		c.drawCur = p
	}
}

// PointerUp ends the active gesture at the view-space point p.
//
// Move and resize always commit. A draw gesture below MinDragThreshold
// in either axis is discarded and acts as a deselecting click; otherwise
// the dragged corners are normalized to document space and a new box
// with the default label is created, initially unselected. The created
// box is returned when one is.
func (c *Controller) PointerUp(p geom.Point) *annot.Box {
	switch c.state {
	case Resizing, Moving:
		c.state = Idle
		c.store.MarkDirty()
		return nil

	case Drawing:
		c.state = Idle
		if math.Abs(p.X-c.drawStart.X) < MinDragThreshold ||
			math.Abs(p.Y-c.drawStart.Y) < MinDragThreshold {
			c.DeselectAll()
			return nil
		}
		rect := geom.RectFromPoints(c.drawStart.ToDoc(c.zoom), p.ToDoc(c.zoom))
		return c.store.AddBox(c.page, rect, annot.DefaultLabel)
	}
	return nil
}

// TransientRect returns the rubber-band rectangle of an in-progress draw
// gesture in view space, and whether one is active. The presentation
// layer renders it; the model knows nothing about it until commit.
func (c *Controller) TransientRect() (geom.Rect, bool) {
	if c.state != Drawing {
		return geom.Rect{}, false
	}
	return geom.RectFromPoints(c.drawStart, c.drawCur), true
}

// RightClick selects the topmost box under the view-space point p and
// opens the edit affordance on it. Without a hit it does nothing; drag
// state is never altered.
func (c *Controller) RightClick(p geom.Point, dialog DialogFunc) {
	hit := c.store.HitTest(c.page, p, c.zoom)
	if hit == nil {
		return
	}
	c.selectBox(hit)
	c.editBox(hit, dialog)
}

// SelectIndex selects the box at a list index on the current page.
// Stale indices are ignored.
func (c *Controller) SelectIndex(index int) *annot.Box {
	box := c.store.BoxAt(c.page, index)
	if box == nil {
		return nil
	}
	c.selectBox(box)
	return box
}

// EditIndex opens the edit affordance on the box at a list index.
// The index is re-validated against the current list first; a stale
// index from an async dialog interaction is rejected silently.
func (c *Controller) EditIndex(index int, dialog DialogFunc) {
	box := c.store.BoxAt(c.page, index)
	if box == nil {
		return
	}
	c.editBox(box, dialog)
}

// DeleteIndex removes the box at a list index after explicit
// confirmation. Out-of-range indices are ignored; deleting the selected
// box clears the selection.
func (c *Controller) DeleteIndex(index int, confirm ConfirmFunc) {
	box := c.store.BoxAt(c.page, index)
	if box == nil {
		return
	}
	if confirm != nil && !confirm("Are you sure you want to delete this box?") {
		return
	}
	if box.ID == c.selected {
		c.selected = 0
	}
	c.store.RemoveAt(c.page, index)
}

// editBox runs the dialog collaborator and applies a confirmed result:
// the label is trimmed and recolored, each non-empty property value is
// assigned and grows the vocabulary, and empty values unset the
// property.
func (c *Controller) editBox(box *annot.Box, dialog DialogFunc) {
	if dialog == nil {
		return
	}
	result, ok := dialog(box, c.store.Vocabulary())
	if !ok {
		return
	}
	if label := strings.TrimSpace(result.Label); label != "" {
		box.Label = label
		c.store.ColorFor(label)
	}
	for name, value := range result.Properties {
		value = strings.TrimSpace(value)
		box.SetProperty(name, value)
		c.store.AddVocabularyValue(name, value)
	}
	c.store.MarkDirty()
}

// StatusLine formats the coordinate read-out for the sidebar: box
// corners during a move or resize, the drag origin and current point
// while drawing, and the bare pointer position otherwise. The view-space
// point p is reported in document space.
func (c *Controller) StatusLine(p geom.Point) string {
	if sel := c.Selected(); sel != nil && (c.state == Moving || c.state == Resizing) {
		return fmt.Sprintf("Start: %.1f, %.1f\nEnd: %.1f, %.1f",
			sel.Rect.X1, sel.Rect.Y1, sel.Rect.X2, sel.Rect.Y2)
	}
	doc := p.ToDoc(c.zoom)
	if c.state == Drawing {
		origin := c.drawStart.ToDoc(c.zoom)
		return fmt.Sprintf("Drawing from: %.1f, %.1f\nCurrent: %.1f, %.1f",
			origin.X, origin.Y, doc.X, doc.Y)
	}
	return fmt.Sprintf("Pos.: %.1f, %.1f", doc.X, doc.Y)
}
