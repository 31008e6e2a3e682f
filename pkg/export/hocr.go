package export

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/holmgr/pagemark/pkg/annot"
	"github.com/holmgr/pagemark/pkg/geom"
)

// HOCRImportConfig controls which hOCR regions become annotation boxes.
type HOCRImportConfig struct {
	// Class is the hOCR element class to import, e.g. "ocr_carea",
	// "ocr_par", "ocr_line", or "ocrx_word".
	Class string
	// Label is assigned to every imported box; empty means DefaultLabel.
	Label string
	// Logger receives warnings about skipped regions (nil = stdout).
	Logger io.Writer
}

// getLogger returns the io.Writer to use for warnings, defaulting to
// os.Stdout if nil.
func getLogger(config HOCRImportConfig) io.Writer {
	if config.Logger == nil {
		return os.Stdout
	}
	return config.Logger
}

// DefaultHOCRImportConfig imports content areas, the coarsest regions an
// OCR engine emits, which is usually what a human annotator wants to
// start correcting from.
func DefaultHOCRImportConfig() HOCRImportConfig {
	return HOCRImportConfig{Class: "ocr_carea"}
}

// ImportHOCR reads an hOCR document and adds one annotation box per
// region of the configured class. Page order in the hOCR file maps to
// page numbers 1..N; regions on pages the store does not know are
// dropped. Returns the number of boxes added.
//
// The hOCR coordinate space is the pixel grid of the rasterized page
// the OCR engine saw, so the coordinates carry over as document space
// unchanged provided the DPI matches.
func ImportHOCR(data []byte, store *annot.Store, config HOCRImportConfig) (int, error) {
	if config.Class == "" {
		config.Class = "ocr_carea"
	}

	decoded, err := decodeCharset(data)
	if err != nil {
		return 0, err
	}
	doc, err := html.Parse(strings.NewReader(string(decoded)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse hOCR data: %w", err)
	}

	var pages []*html.Node
	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.Contains(attrVal(n, "class"), "ocr_page") {
			pages = append(pages, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)
	if len(pages) == 0 {
		return 0, fmt.Errorf("no ocr_page elements found in hOCR data")
	}

	logger := getLogger(config)
	added := 0
	for i, pageNode := range pages {
		pageNum := i + 1
		if !store.HasPage(pageNum) {
			fmt.Fprintf(logger, "Warning: hOCR page %d has no matching document page, skipping\n", pageNum)
			continue
		}
		var collect func(*html.Node)
		collect = func(n *html.Node) {
			if n.Type == html.ElementNode && strings.Contains(attrVal(n, "class"), config.Class) {
				if rect, ok := bboxFromTitle(attrVal(n, "title")); ok && rect.IsValid() {
					store.AddBox(pageNum, rect, config.Label)
					added++
				} else {
					fmt.Fprintf(logger, "Warning: %s element on page %d has no usable bbox, skipping\n", config.Class, pageNum)
				}
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collect(c)
			}
		}
		for c := pageNode.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	return added, nil
}

// decodeCharset converts non-UTF-8 hOCR data to UTF-8 based on the
// charset declared in the document's meta tags.
func decodeCharset(data []byte) ([]byte, error) {
	content := string(data)
	if !strings.Contains(content, "charset=") {
		return data, nil
	}
	start := strings.Index(content, "charset=") + len("charset=")
	if start >= len(content) {
		return data, nil
	}
	snippet := content[start:]
	if len(snippet) > 20 {
		snippet = snippet[:20]
	}
	fields := strings.FieldsFunc(snippet, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>'
	})
	if len(fields) == 0 {
		// Blank declaration, treat as undeclared.
		return data, nil
	}
	enc := strings.ToLower(fields[0])
	if enc == "" || enc == "utf-8" {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return decoded, nil
}

// bboxFromTitle extracts the bbox property from an hOCR title attribute.
// Example input: "bbox 100 200 300 400; x_wconf 95"
func bboxFromTitle(title string) (geom.Rect, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) >= 5 && fields[0] == "bbox" {
			x1, err1 := strconv.ParseFloat(fields[1], 64)
			y1, err2 := strconv.ParseFloat(fields[2], 64)
			x2, err3 := strconv.ParseFloat(fields[3], 64)
			y2, err4 := strconv.ParseFloat(fields[4], 64)
			if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
				return geom.Rect{}, false
			}
			return geom.NewRect(x1, y1, x2, y2), true
		}
	}
	return geom.Rect{}, false
}

func attrVal(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}
