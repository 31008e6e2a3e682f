package annot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/holmgr/pagemark/pkg/geom"
)

func TestAddBoxDefaults(t *testing.T) {
	store := NewStore()
	store.Reset(1)

	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "")
	if box.Label != DefaultLabel {
		t.Errorf("Label = %q, want %q", box.Label, DefaultLabel)
	}
	if box.ID == 0 {
		t.Error("box should receive a nonzero ID")
	}
	if box.Selected {
		t.Error("new box must start unselected")
	}
	if !store.Dirty() {
		t.Error("AddBox must mark the store dirty")
	}
	if got := store.ColorFor(DefaultLabel); got != ColorCycle[0] {
		t.Errorf("first label color = %+v, want %+v", got, ColorCycle[0])
	}
}

func TestResetCreatesEmptyPages(t *testing.T) {
	store := NewStore()
	store.Reset(3)

	if store.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", store.PageCount())
	}
	for page := 1; page <= 3; page++ {
		if !store.HasPage(page) {
			t.Errorf("page %d missing after Reset", page)
		}
		if len(store.Boxes(page)) != 0 {
			t.Errorf("page %d should start empty", page)
		}
	}
	if store.HasPage(4) {
		t.Error("page 4 should not exist")
	}
}

func TestResetKeepsColorsAndVocabulary(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	store.ColorFor("Title")
	store.AddVocabularyValue("type", "heading")

	store.Reset(2)
	if got := store.ColorFor("Title"); got != ColorCycle[0] {
		t.Error("label colors are session state and must survive Reset")
	}
	if diff := cmp.Diff([]string{"heading"}, store.Vocabulary()["type"]); diff != "" {
		t.Errorf("vocabulary mismatch after Reset (-want +got):\n%s", diff)
	}
}

func TestHitTestTopmostWins(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	a := store.AddBox(1, geom.NewRect(10, 10, 100, 100), "A")
	b := store.AddBox(1, geom.NewRect(50, 50, 150, 150), "B")

	// Point inside both: the later-added box wins.
	if got := store.HitTest(1, geom.Point{X: 60, Y: 60}, 1.0); got != b {
		t.Errorf("HitTest in overlap returned %v, want later box %v", got, b)
	}
	// Point inside only the first.
	if got := store.HitTest(1, geom.Point{X: 20, Y: 20}, 1.0); got != a {
		t.Errorf("HitTest = %v, want %v", got, a)
	}
	// Point outside both.
	if got := store.HitTest(1, geom.Point{X: 500, Y: 500}, 1.0); got != nil {
		t.Errorf("HitTest outside all boxes = %v, want nil", got)
	}
}

func TestHitTestUsesZoom(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	// At zoom 2 the box covers (20,20)-(200,100) in view space.
	if got := store.HitTest(1, geom.Point{X: 150, Y: 80}, 2.0); got != box {
		t.Error("HitTest must scale the rect to view space before testing")
	}
	if got := store.HitTest(1, geom.Point{X: 150, Y: 80}, 1.0); got != nil {
		t.Error("point outside the box at zoom 1 should miss")
	}
}

func TestColorCycleWraps(t *testing.T) {
	store := NewStore()
	store.Reset(1)

	labels := make([]string, len(ColorCycle)+1)
	for i := range labels {
		labels[i] = string(rune('A' + i))
	}
	for i, label := range labels[:len(ColorCycle)] {
		if got := store.ColorFor(label); got != ColorCycle[i] {
			t.Errorf("label %q color = %+v, want %+v", label, got, ColorCycle[i])
		}
	}
	// The (cycle_length+1)-th distinct label reuses the first color.
	if got := store.ColorFor(labels[len(ColorCycle)]); got != ColorCycle[0] {
		t.Errorf("wrapped label color = %+v, want %+v", got, ColorCycle[0])
	}
	// Existing assignments are stable.
	if got := store.ColorFor(labels[0]); got != ColorCycle[0] {
		t.Error("existing label assignment must not change")
	}
}

func TestRemoveBoxStaleID(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	store.RemoveBox(1, box.ID)
	if len(store.Boxes(1)) != 0 {
		t.Fatal("box should be removed")
	}
	// Removing again must be silently ignored.
	store.RemoveBox(1, box.ID)
	store.RemoveBox(1, 9999)
}

func TestRemoveAtStaleIndex(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	store.RemoveAt(1, 5)
	store.RemoveAt(1, -1)
	if len(store.Boxes(1)) != 1 {
		t.Error("stale indices must not remove anything")
	}
	store.RemoveAt(1, 0)
	if len(store.Boxes(1)) != 0 {
		t.Error("valid index should remove the box")
	}
}

func TestBoxAtBounds(t *testing.T) {
	store := NewStore()
	store.Reset(1)
	box := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")

	if got := store.BoxAt(1, 0); got != box {
		t.Errorf("BoxAt(1, 0) = %v, want %v", got, box)
	}
	if got := store.BoxAt(1, 1); got != nil {
		t.Error("out-of-range index must return nil")
	}
	if got := store.BoxAt(2, 0); got != nil {
		t.Error("unknown page must return nil")
	}
}

func TestVocabularyGrowOnly(t *testing.T) {
	store := NewStore()
	store.Reset(1)

	store.AddVocabularyValue("type", "heading")
	store.AddVocabularyValue("type", "body")
	store.AddVocabularyValue("type", "heading") // duplicate
	store.AddVocabularyValue("type", "")        // empty value ignored
	store.AddVocabularyValue("", "x")           // empty name ignored

	want := map[string][]string{"type": {"heading", "body"}}
	if diff := cmp.Diff(want, store.Vocabulary()); diff != "" {
		t.Errorf("vocabulary mismatch (-want +got):\n%s", diff)
	}
}

func TestAddProperty(t *testing.T) {
	store := NewStore()
	if !store.AddProperty("  kind  ") {
		t.Error("trimmed new property should be accepted")
	}
	if store.AddProperty("kind") {
		t.Error("duplicate property must be rejected")
	}
	if store.AddProperty("   ") {
		t.Error("blank property must be rejected")
	}
	if _, ok := store.Vocabulary()["kind"]; !ok {
		t.Error("property name should be registered")
	}
}

func TestRescaleAll(t *testing.T) {
	store := NewStore()
	store.Reset(2)
	a := store.AddBox(1, geom.NewRect(10, 10, 100, 50), "A")
	b := store.AddBox(2, geom.NewRect(0, 0, 30, 40), "B")

	store.RescaleAll(2.0)
	if a.Rect != geom.NewRect(20, 20, 200, 100) {
		t.Errorf("page 1 box = %+v, want (20,20)-(200,100)", a.Rect)
	}
	if b.Rect != geom.NewRect(0, 0, 60, 80) {
		t.Errorf("page 2 box = %+v, want (0,0)-(60,80)", b.Rect)
	}
}

func TestInvariantsAfterOperations(t *testing.T) {
	store := NewStore()
	store.Reset(1)

	store.AddBox(1, geom.RectFromPoints(geom.Point{X: 100, Y: 50}, geom.Point{X: 10, Y: 10}), "A")
	store.AddBox(1, geom.NewRect(5, 5, 25, 25), "B")
	store.RescaleAll(0.5)
	store.RemoveAt(1, 0)

	for _, page := range store.PageNumbers() {
		for _, box := range store.Boxes(page) {
			if !box.Rect.IsValid() {
				t.Errorf("box %d violates x1<x2, y1<y2: %+v", box.ID, box.Rect)
			}
		}
	}
}
