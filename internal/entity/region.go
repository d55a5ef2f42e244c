package entity

import "safelens/pkg/geometry"

// DetectionRegion is a protected area in percentage space. Pixel coordinates
// are always derived from it with the current natural size.
type DetectionRegion struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Label          string   `json:"label"`
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	Width          float64  `json:"width"`
	Height         float64  `json:"height"`
	IsActive       bool     `json:"isActive"`
	IsManual       bool     `json:"isManual"`
	ServerDetectID *int64   `json:"serverDetectId,omitempty"`
}

func (r DetectionRegion) Rect() geometry.Rect {
	return geometry.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (r *DetectionRegion) SetRect(rect geometry.Rect) {
	r.X = rect.X
	r.Y = rect.Y
	r.Width = rect.Width
	r.Height = rect.Height
}
