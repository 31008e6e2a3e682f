package export

import (
	"archive/zip"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/holmgr/pagemark/pkg/annot"
)

// WriteAllImagesZIP writes every page bitmap of the document into a ZIP
// archive as sequentially-numbered PNGs (01.png, 02.png, ...). Bitmaps
// already encoded as PNG are copied through unchanged; other formats are
// re-encoded.
func WriteAllImagesZIP(w io.Writer, doc *annot.Document) error {
	if doc == nil || len(doc.Pages) == 0 {
		return fmt.Errorf("no document loaded")
	}

	zw := zip.NewWriter(w)
	for i, bitmap := range doc.Pages {
		entry, err := zw.Create(fmt.Sprintf("%02d.png", i+1))
		if err != nil {
			return fmt.Errorf("failed to create zip entry for page %d: %w", i+1, err)
		}
		if bitmap.Format == "png" {
			if _, err := entry.Write(bitmap.Data); err != nil {
				return fmt.Errorf("failed to write page %d: %w", i+1, err)
			}
			continue
		}
		img, err := bitmap.Decode()
		if err != nil {
			return fmt.Errorf("failed to decode page %d: %w", i+1, err)
		}
		if err := png.Encode(entry, img); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}

// DefaultZipName derives the archive name from the source file's stem
// (document.pdf → document.images.zip), falling back to images.zip when
// no document is bound.
func DefaultZipName(sourcePath string) string {
	if sourcePath == "" {
		return "images.zip"
	}
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + ".images.zip"
}
