// Package raster defines the page rasterizer collaborator: anything that
// can turn a source document into one bitmap per page at a requested DPI.
//
// The annotation core only ever needs the pixel dimensions of each page
// bitmap; the encoded image data is carried along for the exporters.
//
// Two implementations are provided:
//
// - DirRasterizer: consumes a directory of pre-rendered page images in
//   sorted filename order
// - CommandRasterizer: shells out to a pdftoppm-style converter
package raster

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// Page is one rasterized page bitmap with its pixel dimensions.
type Page struct {
	Data   []byte // encoded image bytes
	Width  int    // pixel width
	Height int    // pixel height
	Format string // decoded format name, e.g. "png" or "jpeg"
}

// Decode decodes the page bitmap into an image.
func (p Page) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page bitmap: %w", err)
	}
	return img, nil
}

// Rasterizer converts a source document into ordered page bitmaps at the
// given DPI. Implementations must either return one Page per document
// page or an error; a partial page set is never returned.
type Rasterizer interface {
	Rasterize(path string, dpi int) ([]Page, error)
}

// readPage reads and probes a single image file.
func readPage(path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Page{}, fmt.Errorf("image %s has invalid format: %w", path, err)
	}
	return Page{Data: data, Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// DirRasterizer treats a directory of pre-rendered page images as the
// rasterized document. Files are taken in sorted name order, so page
// numbering follows the usual zero-padded naming convention. The dpi
// argument is ignored: the images are already rendered.
type DirRasterizer struct {
	Dir string
}

// Rasterize loads every image file in the directory.
func (d DirRasterizer) Rasterize(path string, dpi int) ([]Page, error) {
	dir := d.Dir
	if dir == "" {
		dir = path
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no page images found in %s", dir)
	}

	pages := make([]Page, 0, len(names))
	for _, name := range names {
		page, err := readPage(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// CommandRasterizer rasterizes a PDF by invoking an external converter
// in the pdftoppm flag convention: `<command> -png -r <dpi> <input>
// <output-prefix>`.
type CommandRasterizer struct {
	// Command is the converter binary, "pdftoppm" when empty.
	Command string
}

// Rasterize runs the converter into a temporary directory and collects
// the generated page images in sorted order.
func (c CommandRasterizer) Rasterize(path string, dpi int) ([]Page, error) {
	command := c.Command
	if command == "" {
		command = "pdftoppm"
	}

	tmpDir, err := os.MkdirTemp("", "pagemark-raster-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.Command(command, "-png", "-r", fmt.Sprint(dpi), path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s failed: %s: %w", command, msg, err)
		}
		return nil, fmt.Errorf("%s failed: %w", command, err)
	}

	return DirRasterizer{Dir: tmpDir}.Rasterize(tmpDir, dpi)
}
