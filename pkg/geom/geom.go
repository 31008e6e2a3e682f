// Package geom implements the coordinate model shared by the annotation
// store, the interaction controller, and the exporters.
//
// Two coordinate spaces exist:
//
// - Document space: pixel coordinates of the full-resolution rasterized
//   page at the currently bound DPI. All stored geometry lives here.
// - View space: the zoomed, scrollable canvas. A point in view space is
//   the document-space point multiplied by the current zoom factor.
//
// The mapping is a uniform scalar scale with no rotation or skew, so the
// conversions are a single multiply or divide. Changing the document DPI
// is not a view change: it permanently rescales all stored document-space
// geometry to match the newly rasterized pixel grid.
package geom

import "math"

// ZoomStep is the multiplicative zoom change applied per wheel tick.
// Zooming out divides by the same factor so a tick in each direction
// returns to the starting zoom exactly.
const ZoomStep = 1.1

// AnchorSize is the edge length, in view pixels, of the square resize
// anchor at a selected box's bottom-right corner. The anchor is a screen
// affordance and is never scaled by zoom.
const AnchorSize = 8

// Point is a 2D point. The space it lives in (document or view) is
// determined by context.
type Point struct {
	X float64
	Y float64
}

// ToDoc converts a view-space point to document space at the given zoom.
func (p Point) ToDoc(zoom float64) Point {
	return Point{X: p.X / zoom, Y: p.Y / zoom}
}

// ToView converts a document-space point to view space at the given zoom.
func (p Point) ToView(zoom float64) Point {
	return Point{X: p.X * zoom, Y: p.Y * zoom}
}

// Sub returns the component-wise difference p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Add returns the component-wise sum p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Rect is an axis-aligned rectangle in document space.
// A committed rectangle always satisfies X1 < X2 and Y1 < Y2.
type Rect struct {
	X1 float64 // Left coordinate
	Y1 float64 // Top coordinate
	X2 float64 // Right coordinate
	Y2 float64 // Bottom coordinate
}

// NewRect creates a rectangle from the four corner coordinates.
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RectFromPoints creates a normalized rectangle from two opposite drag
// endpoints, taking the component-wise min/max so the result satisfies
// X1 < X2 and Y1 < Y2 regardless of drag direction.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X1: math.Min(a.X, b.X),
		Y1: math.Min(a.Y, b.Y),
		X2: math.Max(a.X, b.X),
		Y2: math.Max(a.Y, b.Y),
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Contains reports whether the document-space point p falls inside the
// rectangle, inclusive of all four edges.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// ContainsView reports whether the view-space point p falls inside the
// rectangle after scaling it to view space at the given zoom. Edges are
// inclusive, matching Contains.
func (r Rect) ContainsView(p Point, zoom float64) bool {
	return r.Scale(zoom).Contains(p)
}

// OnAnchor reports whether the view-space point p falls within the
// fixed-size resize anchor square whose bottom-right corner coincides
// with the rectangle's bottom-right corner in view space. The anchor
// square is AnchorSize view pixels on a side and does not grow or shrink
// with zoom.
func (r Rect) OnAnchor(p Point, zoom float64) bool {
	br := Point{X: r.X2, Y: r.Y2}.ToView(zoom)
	return p.X >= br.X-AnchorSize && p.X <= br.X &&
		p.Y >= br.Y-AnchorSize && p.Y <= br.Y
}

// Translate returns the rectangle moved by the document-space delta d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X1: r.X1 + d.X, Y1: r.Y1 + d.Y, X2: r.X2 + d.X, Y2: r.Y2 + d.Y}
}

// Scale returns the rectangle with every coordinate multiplied by factor.
// Used both for document→view conversion (factor = zoom) and for DPI
// rebinding (factor = newDPI/oldDPI).
func (r Rect) Scale(factor float64) Rect {
	return Rect{
		X1: r.X1 * factor,
		Y1: r.Y1 * factor,
		X2: r.X2 * factor,
		Y2: r.Y2 * factor,
	}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.X1 + r.X2) / 2, Y: (r.Y1 + r.Y2) / 2}
}

// IsValid reports whether the rectangle has positive width and height.
func (r Rect) IsValid() bool {
	return r.X2 > r.X1 && r.Y2 > r.Y1
}

// FitZoom computes the largest zoom at which a page of pageW×pageH
// document pixels fits entirely inside a view of viewW×viewH pixels.
// Used for the initial auto-fit display of a page.
func FitZoom(viewW, viewH, pageW, pageH int) float64 {
	if pageW <= 0 || pageH <= 0 {
		return 1.0
	}
	return math.Min(float64(viewW)/float64(pageW), float64(viewH)/float64(pageH))
}
