package export

import (
	"bytes"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/holmgr/pagemark/pkg/annot"
)

// PDFConfig holds user options for the annotated-PDF export.
type PDFConfig struct {
	LayerName   string  // Base name of the annotation layer (page number will be appended)
	ShowLabels  bool    // Draw label captions above each box
	FillOpacity float64 // Opacity of the box fill (0..1)
	FontName    string  // Caption font
	FontSize    float64 // Caption font size
}

// DefaultPDFConfig returns a config with sensible defaults.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		LayerName:   "Annotations", // Will be formatted as "Annotations (Page X)" in the final PDF
		ShowLabels:  true,
		FillOpacity: 0.35,
		FontName:    "Helvetica",
		FontSize:    10,
	}
}

// BuildPDF assembles a PDF from the document's page bitmaps with the
// annotation rectangles drawn on a toggleable layer per page, so the
// overlay can be switched off in compatible PDF readers. Each PDF page
// is sized to its bitmap, putting PDF points and document-space pixels
// in 1:1 correspondence.
func BuildPDF(doc *annot.Document, store *annot.Store, config PDFConfig) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("no document loaded")
	}
	if config.LayerName == "" {
		config.LayerName = "Annotations"
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont(config.FontName, "", config.FontSize)

	for i, bitmap := range doc.Pages {
		pageNum := i + 1
		w, h := float64(bitmap.Width), float64(bitmap.Height)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("page%d", pageNum)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: strings.ToUpper(bitmap.Format)}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(bitmap.Data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

		layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum), true)
		pdf.BeginLayer(layer)
		for _, box := range store.Boxes(pageNum) {
			drawBox(pdf, box, store.ColorFor(box.Label), config)
		}
		pdf.EndLayer()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox renders a single annotation rectangle plus its caption.
func drawBox(pdf *fpdf.Fpdf, box *annot.Box, c annot.Color, config PDFConfig) {
	x, y := box.Rect.X1, box.Rect.Y1
	w, h := box.Rect.Width(), box.Rect.Height()

	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(unselectedOutline)

	pdf.SetAlpha(config.FillOpacity, "Normal")
	pdf.Rect(x, y, w, h, "F")
	pdf.SetAlpha(1.0, "Normal")
	pdf.Rect(x, y, w, h, "D")

	if config.ShowLabels && box.Label != "" {
		pdf.SetTextColor(0, 0, 0)
		cx := x + w/2
		pdf.Text(cx-pdf.GetStringWidth(box.Label)/2, y-4, box.Label)
	}
}
