// pagemark is a command-line tool for working with PDF bounding-box
// annotation files outside the interactive editor.
//
// It opens a source document (either by rasterizing a PDF through a
// pdftoppm-style converter or by consuming a directory of pre-rendered
// page images), loads and saves annotation JSON, rebinds annotations to
// a new DPI, imports regions from hOCR output, and runs the batch
// exports: flattened bbox JSON, per-page PNGs in a ZIP, a single
// annotated page PNG, and an annotated PDF with the boxes on a
// toggleable layer.
//
// Configuration:
//
// Defaults can be kept in a YAML configuration file:
//
//	dpi: 300
//	rasterizer: "pdftoppm"
//	layer_name: "Annotations"
//
// Usage:
//
//	pagemark [-config config.yml] [options]
//
// Document options (one of -pdf or -images is required for rendering
// exports; annotation files can be processed without either):
//
//	-pdf string      Source PDF, rasterized at -dpi via the converter
//	-images string   Directory of pre-rendered page images
//	-dpi int         Rasterization resolution (default 300)
//
// Annotation options:
//
//	-annotations string  Annotation JSON to load
//	-on-mismatch string  Resolution when the file references a different
//	                     document: adopt, keep, or abort (default abort)
//	-set-dpi int         Rescale all geometry to a new DPI
//	-import-hocr string  Import regions from an hOCR file
//	-hocr-class string   hOCR class to import (default ocr_carea)
//	-hocr-label string   Label for imported regions
//
// Output options:
//
//	-save string          Write annotation JSON
//	-export-bboxes string Write flattened bbox-only JSON
//	-export-pdf string    Write annotated PDF
//	-export-zip string    Write ZIP of page PNGs
//	-export-png string    Write one page as PNG with overlay
//	-export-page int      Page for -export-png (default 1)
//	-zoom float           Zoom for -export-png (default 1.0)
//	-overwrite            Overwrite outputs that already exist
//
// Examples:
//
// Rasterize a PDF and save an empty annotation skeleton:
//
//	pagemark -pdf report.pdf -dpi 300 -save report.json
//
// Rebind an annotation file to 600 DPI:
//
//	pagemark -pdf report.pdf -annotations report.json -set-dpi 600 -save report.json
//
// Bootstrap boxes from OCR output and export the overlay PDF:
//
//	pagemark -pdf report.pdf -annotations report.json -import-hocr report.hocr -export-pdf report_annotated.pdf
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/holmgr/pagemark/pkg/annot"
	"github.com/holmgr/pagemark/pkg/export"
	"github.com/holmgr/pagemark/pkg/raster"
)

type yamlConfig struct {
	DPI        int    `yaml:"dpi"`
	Rasterizer string `yaml:"rasterizer"`
	LayerName  string `yaml:"layer_name"`
}

// loadConfig reads the YAML defaults file.
func loadConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, err
	}
	return &yc, nil
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// checkOutput refuses to clobber an existing output file unless
// -overwrite was given.
func checkOutput(path string, overwrite bool) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		fail("Output file %s already exists. Use -overwrite to overwrite.", path)
	}
}

func main() {
	configPath := flag.String("config", "", "Path to the YAML defaults file")
	pdfPath := flag.String("pdf", "", "Source PDF to rasterize")
	imageDirPath := flag.String("images", "", "Directory containing pre-rendered page images")
	dpi := flag.Int("dpi", 0, "Rasterization resolution (default 300)")
	rasterizerCmd := flag.String("rasterizer", "", "Converter command (default pdftoppm)")

	annotationsPath := flag.String("annotations", "", "Annotation JSON file to load")
	onMismatch := flag.String("on-mismatch", "abort", "Mismatch resolution: adopt, keep, or abort")
	setDPI := flag.Int("set-dpi", 0, "Rescale all geometry to this DPI")
	hocrPath := flag.String("import-hocr", "", "hOCR file to import regions from")
	hocrClass := flag.String("hocr-class", "", "hOCR class to import (default ocr_carea)")
	hocrLabel := flag.String("hocr-label", "", "Label assigned to imported regions")

	savePath := flag.String("save", "", "Write annotation JSON to this path")
	bboxesPath := flag.String("export-bboxes", "", "Write flattened bbox JSON to this path")
	exportPDFPath := flag.String("export-pdf", "", "Write annotated PDF to this path")
	zipPath := flag.String("export-zip", "", "Write ZIP of page PNGs to this path")
	pngPath := flag.String("export-png", "", "Write one annotated page PNG to this path")
	exportPage := flag.Int("export-page", 1, "Page number for -export-png")
	zoom := flag.Float64("zoom", 1.0, "Zoom factor for -export-png")
	layerName := flag.String("layer-name", "", "Layer name for -export-pdf")
	overwrite := flag.Bool("overwrite", false, "Overwrite output files that already exist")
	flag.Parse()

	if *pdfPath == "" && *imageDirPath == "" && *annotationsPath == "" {
		fmt.Fprintln(os.Stderr, "Error: nothing to do; provide -pdf, -images, or -annotations")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Apply config file defaults beneath any explicitly set flags.
	if *configPath != "" {
		yc, err := loadConfig(*configPath)
		if err != nil {
			fail("Failed to load config: %v", err)
		}
		if *dpi == 0 && yc.DPI > 0 {
			*dpi = yc.DPI
		}
		if *rasterizerCmd == "" {
			*rasterizerCmd = yc.Rasterizer
		}
		if *layerName == "" {
			*layerName = yc.LayerName
		}
	}
	if *dpi == 0 {
		*dpi = annot.DefaultDPI
	}

	var rz raster.Rasterizer
	if *imageDirPath != "" {
		rz = raster.DirRasterizer{Dir: *imageDirPath}
	} else {
		rz = raster.CommandRasterizer{Command: *rasterizerCmd}
	}

	store := annot.NewStore()
	var doc *annot.Document

	// Open the source document.
	if *pdfPath != "" || *imageDirPath != "" {
		source := *pdfPath
		if source == "" {
			source = *imageDirPath
		}
		var err error
		doc, err = annot.OpenDocument(source, *dpi, rz)
		if err != nil {
			fail("Failed to open document: %v", err)
		}
		store.Reset(doc.PageCount())
		fmt.Printf("Opened %s: %d pages at %d DPI\n", source, doc.PageCount(), doc.DPI)
	}

	// Load annotations.
	if *annotationsPath != "" {
		resolution := annot.AbortLoad
		switch *onMismatch {
		case "adopt":
			resolution = annot.AdoptSaved
		case "keep":
			resolution = annot.KeepCurrent
		case "abort":
		default:
			fail("Invalid -on-mismatch value %q (want adopt, keep, or abort)", *onMismatch)
		}
		result, err := annot.LoadFile(*annotationsPath, doc, store, annot.LoadOptions{
			Resolver: func(m annot.Mismatch) annot.Resolution {
				fmt.Printf("Annotation file references %s but %s is open; resolving with %q\n",
					m.SavedPath, m.CurrentPath, *onMismatch)
				return resolution
			},
			Rasterizer: rz,
		})
		if err != nil {
			fail("Failed to load annotations: %v", err)
		}
		if result.Aborted {
			fail("Load aborted: annotation file references a different document")
		}
		doc = result.Doc
		fmt.Printf("Loaded %d boxes from %s\n", result.Boxes, *annotationsPath)
	}

	// Rebind to a new DPI.
	if *setDPI != 0 {
		if doc == nil {
			fail("Cannot change DPI: no document open")
		}
		oldDPI := doc.DPI
		if err := doc.ChangeDPI(*setDPI, store, rz); err != nil {
			fail("Failed to change DPI: %v", err)
		}
		fmt.Printf("Rescaled geometry from %d to %d DPI\n", oldDPI, doc.DPI)
	}

	// Import hOCR regions.
	if *hocrPath != "" {
		data, err := os.ReadFile(*hocrPath)
		if err != nil {
			fail("Failed to read hOCR file: %v", err)
		}
		config := export.DefaultHOCRImportConfig()
		if *hocrClass != "" {
			config.Class = *hocrClass
		}
		config.Label = *hocrLabel
		added, err := export.ImportHOCR(data, store, config)
		if err != nil {
			fail("Failed to import hOCR: %v", err)
		}
		fmt.Printf("Imported %d regions from %s\n", added, *hocrPath)
	}

	checkOutput(*savePath, *overwrite)
	checkOutput(*bboxesPath, *overwrite)
	checkOutput(*exportPDFPath, *overwrite)
	checkOutput(*zipPath, *overwrite)
	checkOutput(*pngPath, *overwrite)

	if *savePath != "" {
		if err := annot.SaveFile(*savePath, doc, store); err != nil {
			fail("Failed to save annotations: %v", err)
		}
		fmt.Println("Annotations saved:", *savePath)
	}

	if *bboxesPath != "" {
		data, err := export.MarshalBBoxes(store)
		if err != nil {
			fail("Failed to export bboxes: %v", err)
		}
		if err := os.WriteFile(*bboxesPath, data, 0666); err != nil {
			fail("Failed to write bbox export: %v", err)
		}
		fmt.Println("Bounding boxes exported:", *bboxesPath)
	}

	if *exportPDFPath != "" {
		config := export.DefaultPDFConfig()
		if *layerName != "" {
			config.LayerName = *layerName
		}
		data, err := export.BuildPDF(doc, store, config)
		if err != nil {
			fail("Failed to build annotated PDF: %v", err)
		}
		if err := os.WriteFile(*exportPDFPath, data, 0666); err != nil {
			fail("Failed to write annotated PDF: %v", err)
		}
		fmt.Println("Annotated PDF created:", *exportPDFPath)
	}

	if *zipPath != "" {
		f, err := os.Create(*zipPath)
		if err != nil {
			fail("Failed to create zip: %v", err)
		}
		if err := export.WriteAllImagesZIP(f, doc); err != nil {
			f.Close()
			fail("Failed to export images: %v", err)
		}
		if err := f.Close(); err != nil {
			fail("Failed to write zip: %v", err)
		}
		fmt.Println("All images exported:", *zipPath)
	}

	if *pngPath != "" {
		if doc == nil || *exportPage < 1 || *exportPage > doc.PageCount() {
			fail("Cannot export page %d: no such page", *exportPage)
		}
		f, err := os.Create(*pngPath)
		if err != nil {
			fail("Failed to create PNG: %v", err)
		}
		bitmap := doc.Pages[*exportPage-1]
		if err := export.WritePagePNG(f, bitmap, store, *exportPage, *zoom); err != nil {
			f.Close()
			fail("Failed to export page image: %v", err)
		}
		if err := f.Close(); err != nil {
			fail("Failed to write PNG: %v", err)
		}
		fmt.Println("Image exported:", *pngPath)
	}
}
