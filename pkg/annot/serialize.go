package annot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/holmgr/pagemark/pkg/geom"
	"github.com/holmgr/pagemark/pkg/raster"
)

// The persisted JSON schema. Coordinates are always document-space at
// the file's DPI, rounded to 2 decimals on save.

type fileJSON struct {
	Filename   string              `json:"filename"`
	Date       string              `json:"date"`
	Checksum   string              `json:"checksum"`
	DPI        int                 `json:"dpi"`
	Properties map[string][]string `json:"properties"`
	Pages      []pageJSON          `json:"pages"`
}

type pageJSON struct {
	Page       int             `json:"page"`
	Dimensions *dimensionsJSON `json:"dimensions,omitempty"`
	BBoxes     []boxJSON       `json:"bboxes"`
}

type dimensionsJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type boxJSON struct {
	Label      string     `json:"label"`
	BBox       [4]float64 `json:"bbox"`
	Properties []propJSON `json:"properties"`
}

type propJSON struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Save serializes the full annotation state: the document binding, the
// property vocabulary, and every page's boxes. The checksum is
// recomputed from the source file at save time when the file is still
// readable; otherwise the binding's stored checksum is written.
func Save(doc *Document, store *Store) ([]byte, error) {
	out := fileJSON{
		Date:       time.Now().Format(time.RFC3339),
		Properties: store.Vocabulary(),
		Pages:      []pageJSON{},
	}
	if doc != nil {
		out.Filename = doc.Path
		out.DPI = doc.DPI
		out.Checksum = doc.Checksum
		if sum, err := ChecksumFile(doc.Path); err == nil {
			out.Checksum = sum
		}
	}

	for _, page := range store.PageNumbers() {
		pj := pageJSON{Page: page, BBoxes: []boxJSON{}}
		if doc != nil && page-1 < len(doc.Pages) {
			bitmap := doc.Pages[page-1]
			pj.Dimensions = &dimensionsJSON{Width: bitmap.Width, Height: bitmap.Height}
		}
		for _, box := range store.Boxes(page) {
			bj := boxJSON{
				Label: box.Label,
				BBox: [4]float64{
					round2(box.Rect.X1), round2(box.Rect.Y1),
					round2(box.Rect.X2), round2(box.Rect.Y2),
				},
				Properties: []propJSON{},
			}
			for _, name := range sortedKeys(box.Properties) {
				bj.Properties = append(bj.Properties, propJSON{Property: name, Value: box.Properties[name]})
			}
			pj.BBoxes = append(pj.BBoxes, bj)
		}
		out.Pages = append(out.Pages, pj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize annotations: %w", err)
	}
	return data, nil
}

// SaveFile writes the serialized annotation state to a file and clears
// the store's unsaved-changes flag on success.
func SaveFile(path string, doc *Document, store *Store) error {
	data, err := Save(doc, store)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0666); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}
	store.MarkSaved()
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolution is the user's answer when a loaded annotation file
// references a source document that differs from the one currently open.
type Resolution int

const (
	// AdoptSaved rebinds the session to the file's source document.
	AdoptSaved Resolution = iota
	// KeepCurrent keeps the current document and overlays the file's
	// boxes onto it.
	KeepCurrent
	// AbortLoad cancels the load, leaving all state unchanged.
	AbortLoad
)

// Mismatch describes why a loaded file does not match the open document.
type Mismatch struct {
	SavedPath     string // source path recorded in the file
	SavedChecksum string // checksum recorded in the file
	CurrentPath   string // source path of the open document
}

// LoadOptions configures Load. The Resolver is consulted exactly when a
// real document is open and the file references a different one; a nil
// Resolver aborts on mismatch. The Rasterizer is used to open the saved
// document when adopting its binding; with a nil Rasterizer the
// annotations still load, just without a bound document.
type LoadOptions struct {
	Resolver   func(Mismatch) Resolution
	Rasterizer raster.Rasterizer
}

// LoadResult reports what Load did.
type LoadResult struct {
	Doc     *Document // the binding after the load; == the input doc unless adopted
	Aborted bool      // true when the resolver chose AbortLoad
	Boxes   int       // number of boxes loaded
}

// Load parses a persisted annotation file and installs its state into
// the store, resolving any source-document mismatch through the caller.
//
// The vocabulary block, when present, fully replaces the in-memory
// vocabulary. When absent, a vocabulary is reconstructed by scanning
// every loaded box's property assignments, deduplicating values per
// property name.
//
// All decisions (including the resolver prompt and any re-rasterization)
// happen before the first mutation, so an abort or error leaves the
// document binding and store exactly as they were.
func Load(data []byte, doc *Document, store *Store, opts LoadOptions) (LoadResult, error) {
	var in fileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return LoadResult{Doc: doc}, fmt.Errorf("failed to parse annotations: %w", err)
	}

	// Decide the document binding before touching anything.
	newDoc := doc
	if in.Filename != "" {
		if _, err := os.Stat(in.Filename); err == nil {
			currentChecksum, _ := ChecksumFile(in.Filename)
			adopt := false
			switch {
			case doc == nil:
				adopt = true
			case doc.Path != in.Filename || currentChecksum != in.Checksum:
				resolution := AbortLoad
				if opts.Resolver != nil {
					resolution = opts.Resolver(Mismatch{
						SavedPath:     in.Filename,
						SavedChecksum: in.Checksum,
						CurrentPath:   doc.Path,
					})
				}
				switch resolution {
				case AdoptSaved:
					adopt = true
				case KeepCurrent:
				default:
					return LoadResult{Doc: doc, Aborted: true}, nil
				}
			}
			// Without a rasterizer the saved document cannot be opened;
			// the load proceeds without rebinding, like a missing source.
			if adopt && opts.Rasterizer != nil {
				dpi := in.DPI
				if dpi <= 0 {
					dpi = DefaultDPI
				}
				pages, err := opts.Rasterizer.Rasterize(in.Filename, dpi)
				if err != nil {
					return LoadResult{Doc: doc}, fmt.Errorf("failed to rasterize %s: %w", in.Filename, err)
				}
				newDoc = &Document{Path: in.Filename, Checksum: currentChecksum, DPI: dpi, Pages: pages}
			}
		}
	}

	// Vocabulary: explicit block replaces, otherwise reconstruct from
	// the boxes about to be loaded.
	if in.Properties != nil {
		store.SetVocabulary(in.Properties)
	} else {
		vocab := make(map[string][]string)
		for _, page := range in.Pages {
			for _, bj := range page.BBoxes {
				for _, pa := range bj.Properties {
					if pa.Property == "" {
						continue
					}
					value := strings.TrimSpace(pa.Value)
					if _, ok := vocab[pa.Property]; !ok {
						vocab[pa.Property] = nil
					}
					if value == "" {
						continue
					}
					known := false
					for _, v := range vocab[pa.Property] {
						if v == value {
							known = true
							break
						}
					}
					if !known {
						vocab[pa.Property] = append(vocab[pa.Property], value)
					}
				}
			}
		}
		store.SetVocabulary(vocab)
	}

	// Rebuild the page lists. With a bound document every page 1..N gets
	// an entry and file pages outside that range are dropped; with no
	// document the boxes load anyway, just without rendering.
	if newDoc != nil {
		store.Reset(newDoc.PageCount())
	} else {
		maxPage := 0
		for _, page := range in.Pages {
			if page.Page > maxPage {
				maxPage = page.Page
			}
		}
		store.Reset(maxPage)
	}

	loaded := 0
	for _, page := range in.Pages {
		if !store.HasPage(page.Page) {
			continue
		}
		for _, bj := range page.BBoxes {
			rect := geom.NewRect(bj.BBox[0], bj.BBox[1], bj.BBox[2], bj.BBox[3])
			box := store.AddBox(page.Page, rect, bj.Label)
			for _, pa := range bj.Properties {
				if pa.Property != "" {
					box.SetProperty(pa.Property, pa.Value)
				}
			}
			loaded++
		}
	}

	store.MarkSaved()
	return LoadResult{Doc: newDoc, Boxes: loaded}, nil
}

// LoadFile reads and loads a persisted annotation file.
func LoadFile(path string, doc *Document, store *Store, opts LoadOptions) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{Doc: doc}, fmt.Errorf("failed to read annotations: %w", err)
	}
	return Load(data, doc, store, opts)
}
