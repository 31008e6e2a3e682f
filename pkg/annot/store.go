package annot

import (
	"sort"
	"strings"

	"github.com/holmgr/pagemark/pkg/geom"
)

// Store holds every annotation of the current document, keyed by 1-based
// page number. Insertion order within a page is z-order: the last box
// added is drawn on top and wins hit-testing ties.
//
// The store also owns the two pieces of session-global annotation state:
// the label→color assignment (first-seen order from ColorCycle, wrapping)
// and the grow-only property vocabulary used for autocompletion.
//
// A Store is not safe for concurrent use. All mutations are expected to
// arrive from a single event-handling goroutine.
type Store struct {
	pages      map[int][]*Box
	pageCount  int
	colors     map[string]Color
	colorIndex int
	vocabulary map[string][]string
	dirty      bool
	nextID     uint64
}

// NewStore creates an empty store with no pages.
func NewStore() *Store {
	return &Store{
		pages:      make(map[int][]*Box),
		colors:     make(map[string]Color),
		vocabulary: make(map[string][]string),
	}
}

// Reset discards all boxes and creates one empty page list per page of
// the newly bound document. Label colors and the vocabulary survive a
// reset; they are session state, not document state.
func (s *Store) Reset(pageCount int) {
	s.pages = make(map[int][]*Box)
	for page := 1; page <= pageCount; page++ {
		s.pages[page] = nil
	}
	s.pageCount = pageCount
}

// PageCount returns the number of pages the store currently tracks.
func (s *Store) PageCount() int { return s.pageCount }

// HasPage reports whether the given 1-based page number exists.
func (s *Store) HasPage(page int) bool {
	_, ok := s.pages[page]
	return ok
}

// Boxes returns the ordered box list for a page. The slice is the
// store's own; callers must not reorder it.
func (s *Store) Boxes(page int) []*Box {
	return s.pages[page]
}

// PageNumbers returns all page numbers in ascending order.
func (s *Store) PageNumbers() []int {
	nums := make([]int, 0, len(s.pages))
	for page := range s.pages {
		nums = append(nums, page)
	}
	sort.Ints(nums)
	return nums
}

// AddBox appends a new box to a page's list and assigns (or reuses) the
// color for its label. An empty label gets DefaultLabel. Overlapping
// rectangles are permitted; AddBox always succeeds.
func (s *Store) AddBox(page int, rect geom.Rect, label string) *Box {
	if label == "" {
		label = DefaultLabel
	}
	s.nextID++
	box := &Box{
		ID:         s.nextID,
		Rect:       rect,
		Label:      label,
		Properties: make(map[string]string),
	}
	s.pages[page] = append(s.pages[page], box)
	s.ColorFor(label)
	s.dirty = true
	return box
}

// RemoveBox removes the box with the given ID from a page. A stale ID
// that no longer matches any box is silently ignored.
func (s *Store) RemoveBox(page int, id uint64) {
	boxes := s.pages[page]
	for i, box := range boxes {
		if box.ID == id {
			s.pages[page] = append(boxes[:i], boxes[i+1:]...)
			s.dirty = true
			return
		}
	}
}

// RemoveAt removes the box at a list index on a page. Out-of-range
// indices are silently ignored so a stale list selection never crashes.
func (s *Store) RemoveAt(page, index int) {
	boxes := s.pages[page]
	if index < 0 || index >= len(boxes) {
		return
	}
	s.pages[page] = append(boxes[:index], boxes[index+1:]...)
	s.dirty = true
}

// BoxAt returns the box at a list index on a page, or nil if the index
// no longer matches the current list.
func (s *Store) BoxAt(page, index int) *Box {
	boxes := s.pages[page]
	if index < 0 || index >= len(boxes) {
		return nil
	}
	return boxes[index]
}

// IndexOf returns the list index of a box ID on a page, or -1.
func (s *Store) IndexOf(page int, id uint64) int {
	for i, box := range s.pages[page] {
		if box.ID == id {
			return i
		}
	}
	return -1
}

// Find locates a box by ID across all pages.
func (s *Store) Find(id uint64) (page int, box *Box) {
	for p, boxes := range s.pages {
		for _, b := range boxes {
			if b.ID == id {
				return p, b
			}
		}
	}
	return 0, nil
}

// HitTest returns the topmost box on a page containing the view-space
// point at the given zoom, or nil. The page list is scanned in reverse
// insertion order so later-created boxes win ties on overlapping
// regions. Edges are inclusive.
func (s *Store) HitTest(page int, p geom.Point, zoom float64) *Box {
	boxes := s.pages[page]
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].Rect.ContainsView(p, zoom) {
			return boxes[i]
		}
	}
	return nil
}

// ColorFor returns the display color for a label, allocating the next
// color from ColorCycle on first sight. The global allocation index
// increments per distinct label and wraps modulo the cycle length, so
// colors repeat once the palette is exhausted. Assignments are never
// removed.
func (s *Store) ColorFor(label string) Color {
	if c, ok := s.colors[label]; ok {
		return c
	}
	c := ColorCycle[s.colorIndex%len(ColorCycle)]
	s.colorIndex++
	s.colors[label] = c
	return c
}

// Labels returns every label that has a color assigned, sorted.
// This is the autocompletion list for the label entry field.
func (s *Store) Labels() []string {
	labels := make([]string, 0, len(s.colors))
	for label := range s.colors {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Vocabulary returns the property vocabulary: property name → ordered
// list of known values. The map is the store's own.
func (s *Store) Vocabulary() map[string][]string {
	return s.vocabulary
}

// AddProperty registers a new property name with an empty value list.
// Returns false if the name is empty after trimming or already exists.
func (s *Store) AddProperty(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if _, ok := s.vocabulary[name]; ok {
		return false
	}
	s.vocabulary[name] = nil
	s.dirty = true
	return true
}

// AddVocabularyValue records a value under a property name if it is not
// already known. The vocabulary only ever grows through this path;
// values are never dropped automatically.
func (s *Store) AddVocabularyValue(name, value string) {
	if name == "" || value == "" {
		return
	}
	for _, v := range s.vocabulary[name] {
		if v == value {
			return
		}
	}
	s.vocabulary[name] = append(s.vocabulary[name], value)
}

// SetVocabulary replaces the entire vocabulary, used when loading an
// annotation file that carries an explicit properties block.
func (s *Store) SetVocabulary(vocab map[string][]string) {
	if vocab == nil {
		vocab = make(map[string][]string)
	}
	s.vocabulary = vocab
}

// RescaleAll multiplies every box's coordinates on every page by factor.
// Called when the document's DPI changes so stored geometry stays
// aligned with the re-rasterized pixel grid.
func (s *Store) RescaleAll(factor float64) {
	for _, boxes := range s.pages {
		for _, box := range boxes {
			box.Rect = box.Rect.Scale(factor)
		}
	}
}

// Dirty reports whether the store has unsaved changes.
func (s *Store) Dirty() bool { return s.dirty }

// MarkDirty records that the store has unsaved changes.
func (s *Store) MarkDirty() { s.dirty = true }

// MarkSaved clears the unsaved-changes flag after a successful save or load.
func (s *Store) MarkSaved() { s.dirty = false }

// BoxCount returns the total number of boxes across all pages.
func (s *Store) BoxCount() int {
	n := 0
	for _, boxes := range s.pages {
		n += len(boxes)
	}
	return n
}
