package regions

import (
	"fmt"
	"strconv"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
)

// Detection is one box as the detection API reports it, in natural pixels.
type Detection struct {
	Category   string   `json:"category"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	DetectID   *int64   `json:"detectId,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// FromDetections converts API detections into active percentage-space
// regions. Ids are derived from the wire category, the position in the
// response and the original pixel origin.
func FromDetections(detections []Detection, natural geometry.Dimensions) []entity.DetectionRegion {
	out := make([]entity.DetectionRegion, 0, len(detections))
	for i, d := range detections {
		category := entity.CategoryFromWire(d.Category)
		r := entity.DetectionRegion{
			ID:             fmt.Sprintf("%s-%d-%s-%s", category.Wire(), i, coord(d.X), coord(d.Y)),
			Category:       category,
			Label:          category.Label(),
			IsActive:       true,
			ServerDetectID: d.DetectID,
		}
		r.SetRect(geometry.FromNaturalPixels(geometry.NaturalBox{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}, natural))
		out = append(out, r)
	}
	return out
}

// coord prints a pixel coordinate without a trailing ".0": 100 and 100.5.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
