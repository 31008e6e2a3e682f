// Package export implements the write-only output formats of the
// annotation tool, plus the hOCR import that bootstraps annotations from
// existing OCR output.
//
// Formats:
//
// - Single-page PNG with the annotation overlay drawn in, optionally
//   scaled to the current zoom
// - ZIP archive of all pages as sequentially-numbered PNGs
// - Reduced bbox-only JSON, flattened across pages in page-number order
// - Annotated PDF: one page per bitmap with the rectangles and labels on
//   a toggleable layer
//
// All coordinates written by this package are document-space.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/holmgr/pagemark/pkg/annot"
	"github.com/holmgr/pagemark/pkg/raster"
)

const (
	selectedOutline   = 4
	unselectedOutline = 2
	fillAlpha         = 64
)

// RenderPage draws a page bitmap with its annotation overlay at the
// given zoom and returns the composed image. Box outlines, translucent
// fills, and label captions are recomputed from document-space
// coordinates at the requested zoom, never rescaled incrementally.
func RenderPage(bitmap raster.Page, store *annot.Store, page int, zoom float64) (image.Image, error) {
	src, err := bitmap.Decode()
	if err != nil {
		return nil, err
	}
	if zoom <= 0 {
		zoom = 1.0
	}

	width := int(float64(bitmap.Width) * zoom)
	height := int(float64(bitmap.Height) * zoom)
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("zoom %g collapses page %d to zero size", zoom, page)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if zoom == 1.0 {
		draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}

	for _, box := range store.Boxes(page) {
		c := store.ColorFor(box.Label)
		view := box.Rect.Scale(zoom)
		r := image.Rect(int(view.X1), int(view.Y1), int(view.X2), int(view.Y2))

		fill := image.NewUniform(color.RGBA{R: c.R, G: c.G, B: c.B, A: fillAlpha})
		draw.Draw(dst, r.Intersect(dst.Bounds()), fill, image.Point{}, draw.Over)

		outline := unselectedOutline
		if box.Selected {
			outline = selectedOutline
		}
		drawOutline(dst, r, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}, outline)
		drawCaption(dst, box.Label, (r.Min.X+r.Max.X)/2, r.Min.Y-4)
	}
	return dst, nil
}

// WritePagePNG renders a page with its overlay and encodes it as PNG.
func WritePagePNG(w io.Writer, bitmap raster.Page, store *annot.Store, page int, zoom float64) error {
	img, err := RenderPage(bitmap, store, page, zoom)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode page %d: %w", page, err)
	}
	return nil
}

// drawOutline strokes an axis-aligned rectangle with the given width,
// growing inward from the rectangle's edges.
func drawOutline(dst *image.RGBA, r image.Rectangle, c color.RGBA, width int) {
	src := image.NewUniform(c)
	bounds := dst.Bounds()
	top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width)
	bottom := image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y)
	left := image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y)
	right := image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(dst, edge.Intersect(bounds), src, image.Point{}, draw.Src)
	}
}

// drawCaption centers the label text horizontally at (cx, baseline).
func drawCaption(dst *image.RGBA, text string, cx, baseline int) {
	if text == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(text)
}
