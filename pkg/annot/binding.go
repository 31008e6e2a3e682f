package annot

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/holmgr/pagemark/pkg/raster"
)

// Document binds an annotation session to a source file. The checksum
// and DPI together fully determine the rasterized bitmap set, so a saved
// annotation file carrying the same pair is guaranteed to line up with
// the same pixel grid.
type Document struct {
	// Path is the source file the annotations belong to.
	Path string

	// Checksum is the hex MD5 of the source file's bytes at load time.
	Checksum string

	// DPI is the rasterization resolution the page bitmaps were
	// rendered at. Document-space coordinates are pixels at this DPI.
	DPI int

	// Pages holds the rasterized page bitmaps in page order.
	Pages []raster.Page
}

// PageCount returns the number of rasterized pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// ChecksumFile computes the hex MD5 checksum of a file's contents.
func ChecksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// OpenDocument rasterizes a source file and returns a fresh binding.
// On any failure nothing is returned, so the caller's previous binding
// and store remain untouched. After a successful open the caller resets
// its store to one empty page list per returned bitmap.
//
// A directory source (pre-rendered page images) has no single file to
// checksum; its binding carries an empty checksum.
func OpenDocument(path string, dpi int, rz raster.Rasterizer) (*Document, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid DPI %d", dpi)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	checksum := ""
	if !info.IsDir() {
		checksum, err = ChecksumFile(path)
		if err != nil {
			return nil, err
		}
	}
	pages, err := rz.Rasterize(path, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize %s: %w", path, err)
	}
	return &Document{Path: path, Checksum: checksum, DPI: dpi, Pages: pages}, nil
}

// ChangeDPI rebinds the document at a new rasterization resolution.
//
// The stored geometry is rescaled by newDPI/oldDPI first, then the
// document is re-rasterized. A rasterization failure leaves the rescaled
// coordinates in place and is reported to the caller; the coordinates
// and DPI stay consistent with each other either way, only the bitmaps
// are stale. Equal DPI is a no-op.
func (d *Document) ChangeDPI(newDPI int, store *Store, rz raster.Rasterizer) error {
	if newDPI <= 0 {
		return fmt.Errorf("invalid DPI %d", newDPI)
	}
	if newDPI == d.DPI {
		return nil
	}

	factor := float64(newDPI) / float64(d.DPI)
	store.RescaleAll(factor)
	d.DPI = newDPI
	store.MarkDirty()

	pages, err := rz.Rasterize(d.Path, newDPI)
	if err != nil {
		return fmt.Errorf("failed to rasterize %s at %d DPI: %w", d.Path, newDPI, err)
	}
	d.Pages = pages
	return nil
}
