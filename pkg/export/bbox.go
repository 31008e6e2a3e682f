package export

import (
	"encoding/json"
	"fmt"

	"github.com/holmgr/pagemark/pkg/annot"
)

// bboxExport is the reduced machine-consumption format: coordinates and
// labels only, flattened across all pages in page-number order.
type bboxExport struct {
	BBoxes [][4]float64 `json:"bboxes"`
	Labels []string     `json:"labels"`
}

// MarshalBBoxes serializes every box in the store as the reduced
// bbox-only JSON. Coordinates are written document-space and unrounded.
func MarshalBBoxes(store *annot.Store) ([]byte, error) {
	out := bboxExport{BBoxes: [][4]float64{}, Labels: []string{}}
	for _, page := range store.PageNumbers() {
		for _, box := range store.Boxes(page) {
			out.BBoxes = append(out.BBoxes, [4]float64{
				box.Rect.X1, box.Rect.Y1, box.Rect.X2, box.Rect.Y2,
			})
			out.Labels = append(out.Labels, box.Label)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bboxes: %w", err)
	}
	return data, nil
}
