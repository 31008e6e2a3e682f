package editor

import (
	"math"
	"strings"
	"testing"

	"github.com/holmgr/pagemark/pkg/annot"
	"github.com/holmgr/pagemark/pkg/geom"
)

func newTestController(pages int) (*Controller, *annot.Store) {
	store := annot.NewStore()
	store.Reset(pages)
	return NewController(store), store
}

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }

func TestDrawCreatesBox(t *testing.T) {
	c, store := newTestController(1)

	c.PointerDown(pt(10, 10))
	if c.State() != Drawing {
		t.Fatalf("state = %v, want drawing", c.State())
	}
	c.PointerMove(pt(60, 30))
	box := c.PointerUp(pt(100, 50))
	if box == nil {
		t.Fatal("draw gesture above threshold must create a box")
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle after commit", c.State())
	}
	if box.Rect != geom.NewRect(10, 10, 100, 50) {
		t.Errorf("rect = %+v, want (10,10)-(100,50)", box.Rect)
	}
	if box.Label != annot.DefaultLabel {
		t.Errorf("label = %q, want %q", box.Label, annot.DefaultLabel)
	}
	if box.Selected || c.Selected() != nil {
		t.Error("a newly drawn box starts unselected")
	}
	if len(store.Boxes(1)) != 1 {
		t.Errorf("page has %d boxes, want 1", len(store.Boxes(1)))
	}
}

func TestDrawNormalizesCorners(t *testing.T) {
	c, _ := newTestController(1)

	c.PointerDown(pt(100, 50))
	box := c.PointerUp(pt(10, 10))
	if box == nil {
		t.Fatal("reverse drag must still create a box")
	}
	if box.Rect != geom.NewRect(10, 10, 100, 50) {
		t.Errorf("rect = %+v, want normalized (10,10)-(100,50)", box.Rect)
	}
}

func TestDrawBelowThresholdDiscards(t *testing.T) {
	tests := []struct {
		name string
		end  geom.Point
	}{
		{"narrow", pt(14, 50)},   // |dx| = 4
		{"short", pt(100, 14.9)}, // |dy| = 4.9
		{"click", pt(10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newTestController(1)
			c.PointerDown(pt(10, 10))
			if box := c.PointerUp(tt.end); box != nil {
				t.Error("sub-threshold draw must not create a box")
			}
			if len(store.Boxes(1)) != 0 {
				t.Error("store must stay empty")
			}
			if c.State() != Idle {
				t.Errorf("state = %v, want idle", c.State())
			}
		})
	}
}

func TestDrawExactThresholdCreates(t *testing.T) {
	c, store := newTestController(1)
	c.PointerDown(pt(10, 10))
	if box := c.PointerUp(pt(15, 15)); box == nil {
		t.Error("both deltas exactly at the threshold must create a box")
	}
	if len(store.Boxes(1)) != 1 {
		t.Error("expected exactly one box")
	}
}

func TestClickDeselects(t *testing.T) {
	c, _ := newTestController(1)
	c.PointerDown(pt(10, 10))
	c.PointerUp(pt(100, 50))
	c.SelectIndex(0)
	if c.Selected() == nil {
		t.Fatal("SelectIndex should select the box")
	}

	// A click on empty canvas is a sub-threshold draw: it deselects.
	c.PointerDown(pt(500, 500))
	c.PointerUp(pt(500, 500))
	if c.Selected() != nil {
		t.Error("empty-canvas click must deselect")
	}
}

func TestPointerDownSelectsAndMoves(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	c.PointerDown(pt(50, 30))
	if c.State() != Moving {
		t.Fatalf("state = %v, want moving", c.State())
	}
	if c.Selected() != box || !box.Selected {
		t.Fatal("pointer-down on a box must select it")
	}
	c.PointerMove(pt(60, 40))
	c.PointerUp(pt(60, 40))

	if box.Rect != geom.NewRect(20, 20, 110, 60) {
		t.Errorf("rect = %+v, want translated by (10,10)", box.Rect)
	}
	if c.State() != Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if c.Selected() != box {
		t.Error("selection survives a committed move")
	}
	if !store.Dirty() {
		t.Error("move must mark the store dirty")
	}
}

func TestMoveIsIncremental(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	c.PointerDown(pt(50, 30))
	c.PointerMove(pt(55, 30))
	c.PointerMove(pt(60, 35))
	c.PointerUp(pt(60, 35))

	// Two increments of (5,0) and (5,5) accumulate to (10,5).
	if box.Rect != geom.NewRect(20, 15, 110, 55) {
		t.Errorf("rect = %+v, want translated by (10,5)", box.Rect)
	}
}

func TestMoveRespectsZoom(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SetZoom(2.0)

	// Pointer-down inside the box in view space: (100,60) → doc (50,30).
	c.PointerDown(pt(100, 60))
	if c.State() != Moving {
		t.Fatalf("state = %v, want moving", c.State())
	}
	c.PointerMove(pt(120, 60)) // 20 view px = 10 doc px
	c.PointerUp(pt(120, 60))

	if box.Rect != geom.NewRect(20, 10, 110, 50) {
		t.Errorf("rect = %+v, want translated by (10,0) in doc space", box.Rect)
	}
}

func TestResizeGesture(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SelectIndex(0)

	// (96,46) is inside the 8px anchor square at the (100,50) corner.
	c.PointerDown(pt(96, 46))
	if c.State() != Resizing {
		t.Fatalf("state = %v, want resizing", c.State())
	}
	c.PointerMove(pt(146, 96))
	c.PointerUp(pt(146, 96))

	if box.Rect != geom.NewRect(10, 10, 150, 100) {
		t.Errorf("rect = %+v, want bottom-right moved by (50,50)", box.Rect)
	}
	if c.State() != Idle || c.Selected() != box {
		t.Error("resize commits to idle and keeps the selection")
	}
}

func TestResizeClampPreventsInversion(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SelectIndex(0)

	c.PointerDown(pt(96, 46))
	// Drag far past the top-left corner.
	c.PointerMove(pt(-200, -200))
	c.PointerUp(pt(-200, -200))

	want := geom.NewRect(10, 10, 10+MinDragThreshold, 10+MinDragThreshold)
	if box.Rect != want {
		t.Errorf("rect = %+v, want clamped %+v", box.Rect, want)
	}
	if !box.Rect.IsValid() {
		t.Error("clamped box must stay valid")
	}
}

func TestResizeOnlyOnSelectedAnchor(t *testing.T) {
	c, store := newTestController(1)
	store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	// Nothing selected: a press on the corner hits the box, not an anchor.
	c.PointerDown(pt(96, 46))
	if c.State() != Moving {
		t.Errorf("state = %v, want moving (anchor only exists on the selection)", c.State())
	}
}

func TestDrawRespectsZoom(t *testing.T) {
	c, store := newTestController(1)
	c.SetZoom(2.0)

	c.PointerDown(pt(20, 20))
	box := c.PointerUp(pt(200, 100))
	if box == nil {
		t.Fatal("expected a box")
	}
	if box.Rect != geom.NewRect(10, 10, 100, 50) {
		t.Errorf("rect = %+v, want (10,10)-(100,50) in doc space", box.Rect)
	}
	_ = store
}

func TestHitTestTieBreakOnPointerDown(t *testing.T) {
	c, store := newTestController(1)
	store.AddBox(1, geom.NewRect(10, 10, 100, 100), "A")
	b := store.AddBox(1, geom.NewRect(50, 50, 150, 150), "B")

	c.PointerDown(pt(60, 60))
	c.PointerUp(pt(60, 60))
	if c.Selected() != b {
		t.Error("the later-added box wins hit-testing ties")
	}
}

func TestWheelZoom(t *testing.T) {
	c, _ := newTestController(1)
	c.Wheel(+1)
	if math.Abs(c.Zoom()-geom.ZoomStep) > 1e-9 {
		t.Errorf("zoom = %v, want %v", c.Zoom(), geom.ZoomStep)
	}
	c.Wheel(-1)
	if math.Abs(c.Zoom()-1.0) > 1e-9 {
		t.Errorf("zoom = %v, want 1.0 after one tick each way", c.Zoom())
	}
}

func TestWheelKeepsSelectionAndState(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SelectIndex(0)

	c.Wheel(+1)
	if c.Selected() != box {
		t.Error("wheel must not change the selection")
	}
	if c.State() != Idle {
		t.Error("wheel must not change the interaction state")
	}
	if box.Rect != geom.NewRect(10, 10, 100, 50) {
		t.Error("wheel must not touch document-space geometry")
	}
}

func TestSelectIndexStale(t *testing.T) {
	c, _ := newTestController(1)
	if got := c.SelectIndex(0); got != nil {
		t.Error("stale index must select nothing")
	}
	if got := c.SelectIndex(-1); got != nil {
		t.Error("negative index must select nothing")
	}
}

func TestDeleteIndex(t *testing.T) {
	c, store := newTestController(1)
	store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SelectIndex(0)

	// Declined confirmation keeps the box.
	c.DeleteIndex(0, func(string) bool { return false })
	if len(store.Boxes(1)) != 1 {
		t.Fatal("declined delete must keep the box")
	}

	c.DeleteIndex(0, func(string) bool { return true })
	if len(store.Boxes(1)) != 0 {
		t.Fatal("confirmed delete must remove the box")
	}
	if c.Selected() != nil {
		t.Error("deleting the selected box clears the selection")
	}
}

func TestDeleteIndexStale(t *testing.T) {
	c, store := newTestController(1)
	store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	confirmed := false
	c.DeleteIndex(5, func(string) bool { confirmed = true; return true })
	if confirmed {
		t.Error("stale index must not even prompt")
	}
	if len(store.Boxes(1)) != 1 {
		t.Error("stale index must not delete")
	}
}

func TestEditIndexAppliesDialogResult(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	store.MarkSaved()

	c.EditIndex(0, func(b *annot.Box, vocab map[string][]string) (EditResult, bool) {
		if b != box {
			t.Error("dialog received the wrong box")
		}
		return EditResult{
			Label: "  Title  ",
			Properties: map[string]string{
				"type": " heading ",
				"note": "",
			},
		}, true
	})

	if box.Label != "Title" {
		t.Errorf("label = %q, want trimmed %q", box.Label, "Title")
	}
	if box.Properties["type"] != "heading" {
		t.Errorf("type = %q, want %q", box.Properties["type"], "heading")
	}
	if _, ok := box.Properties["note"]; ok {
		t.Error("empty dialog value must unset the property")
	}
	if got := store.Vocabulary()["type"]; len(got) != 1 || got[0] != "heading" {
		t.Errorf("vocabulary = %v, want the typed value recorded", got)
	}
	if !store.Dirty() {
		t.Error("a confirmed edit must mark the store dirty")
	}
}

func TestEditIndexCancelled(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	store.MarkSaved()

	c.EditIndex(0, func(*annot.Box, map[string][]string) (EditResult, bool) {
		return EditResult{Label: "Changed"}, false
	})
	if box.Label != "A" {
		t.Error("cancelled dialog must not apply")
	}
	if store.Dirty() {
		t.Error("cancelled dialog must not dirty the store")
	}
}

func TestRightClickOpensEditOnHit(t *testing.T) {
	c, store := newTestController(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	opened := false
	c.RightClick(pt(50, 30), func(b *annot.Box, vocab map[string][]string) (EditResult, bool) {
		opened = true
		return EditResult{}, false
	})
	if !opened {
		t.Error("right-click on a box must open the edit affordance")
	}
	if c.Selected() != box {
		t.Error("right-click selects the box")
	}

	opened = false
	c.RightClick(pt(500, 500), func(*annot.Box, map[string][]string) (EditResult, bool) {
		opened = true
		return EditResult{}, false
	})
	if opened {
		t.Error("right-click on empty canvas must do nothing")
	}
}

func TestSetPageDropsSelection(t *testing.T) {
	c, store := newTestController(2)
	store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	c.SelectIndex(0)

	c.SetPage(2)
	if c.Page() != 2 {
		t.Errorf("page = %d, want 2", c.Page())
	}
	if c.Selected() != nil {
		t.Error("switching pages drops the selection")
	}
	c.SetPage(9)
	if c.Page() != 2 {
		t.Error("unknown pages are ignored")
	}
}

func TestTransientRect(t *testing.T) {
	c, _ := newTestController(1)
	if _, ok := c.TransientRect(); ok {
		t.Error("no transient rect while idle")
	}
	c.PointerDown(pt(10, 10))
	c.PointerMove(pt(60, 40))
	r, ok := c.TransientRect()
	if !ok {
		t.Fatal("transient rect must exist while drawing")
	}
	if r != geom.NewRect(10, 10, 60, 40) {
		t.Errorf("transient rect = %+v, want (10,10)-(60,40)", r)
	}
	c.PointerUp(pt(60, 40))
	if _, ok := c.TransientRect(); ok {
		t.Error("transient rect disappears on commit")
	}
}

func TestStatusLine(t *testing.T) {
	c, store := newTestController(1)
	c.SetZoom(2.0)

	if got := c.StatusLine(pt(20, 40)); got != "Pos.: 10.0, 20.0" {
		t.Errorf("idle status = %q", got)
	}

	c.PointerDown(pt(20, 20))
	if got := c.StatusLine(pt(60, 60)); !strings.HasPrefix(got, "Drawing from: 10.0, 10.0") {
		t.Errorf("drawing status = %q", got)
	}
	c.PointerUp(pt(200, 200))

	store.MarkSaved()
	c.SelectIndex(0)
	c.PointerDown(pt(100, 100))
	if got := c.StatusLine(pt(100, 100)); !strings.HasPrefix(got, "Start: 10.0, 10.0") {
		t.Errorf("moving status = %q", got)
	}
}

func TestInvariantsAcrossGestureSequences(t *testing.T) {
	c, store := newTestController(1)

	check := func(step string) {
		t.Helper()
		for _, box := range store.Boxes(1) {
			if !box.Rect.IsValid() {
				t.Fatalf("after %s: box %d invalid: %+v", step, box.ID, box.Rect)
			}
		}
	}

	c.PointerDown(pt(100, 50))
	c.PointerUp(pt(10, 10))
	check("reverse draw")

	c.PointerDown(pt(50, 30))
	c.PointerMove(pt(-40, -20))
	c.PointerUp(pt(-40, -20))
	check("move off-canvas")

	c.SelectIndex(0)
	sel := c.Selected()
	br := pt(sel.Rect.X2, sel.Rect.Y2)
	c.PointerDown(br)
	c.PointerMove(pt(br.X-1000, br.Y-1000))
	c.PointerUp(pt(br.X-1000, br.Y-1000))
	check("resize inverted")
}
