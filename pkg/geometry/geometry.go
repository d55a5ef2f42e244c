package geometry

import "math"

const (
	Full        = 100.0
	MinSize     = 5.0
	DefaultSize = 20.0
)

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (d *Dimensions) Known() bool {
	return d != nil && d.Width > 0 && d.Height > 0
}

// Rect is a box in percentage space: every field is a fraction (0-100) of the
// natural image width or height.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PixelRect is a box in natural image pixels, top-left origin.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NaturalBox is a box in natural image pixels as a detector reports it.
// Coordinates may be fractional.
type NaturalBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (p PixelRect) Natural() NaturalBox {
	return NaturalBox{X: float64(p.X), Y: float64(p.Y), Width: float64(p.Width), Height: float64(p.Height)}
}

// Box is a box in rendered (on-screen) pixels.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Unit string

const (
	UnitPixel   Unit = "px"
	UnitPercent Unit = "%"
)

// Placement is what the overlay paints with. Unit tells the client how to
// interpret the four numbers.
type Placement struct {
	Unit   Unit    `json:"unit"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func ToRenderedPixels(r Rect, rendered Dimensions) Box {
	return Box{
		Left:   r.X / Full * rendered.Width,
		Top:    r.Y / Full * rendered.Height,
		Width:  r.Width / Full * rendered.Width,
		Height: r.Height / Full * rendered.Height,
	}
}

func ToNaturalPixels(r Rect, natural Dimensions) PixelRect {
	return PixelRect{
		X:      int(math.Round(r.X / Full * natural.Width)),
		Y:      int(math.Round(r.Y / Full * natural.Height)),
		Width:  int(math.Round(r.Width / Full * natural.Width)),
		Height: int(math.Round(r.Height / Full * natural.Height)),
	}
}

// FromNaturalPixels converts a detection box reported against the natural
// image into percentage space. Size is clamped first, then position, so the
// box never extends past the image edge.
func FromNaturalPixels(p NaturalBox, natural Dimensions) Rect {
	if !natural.Known() {
		return Rect{}
	}

	width := math.Min(Full, p.Width/natural.Width*Full)
	height := math.Min(Full, p.Height/natural.Height*Full)
	x := math.Min(Full-width, math.Max(0, p.X/natural.Width*Full))
	y := math.Min(Full-height, math.Max(0, p.Y/natural.Height*Full))

	return Rect{X: x, Y: y, Width: math.Max(0, width), Height: math.Max(0, height)}
}

// Place positions a region on screen. Until the rendered size is known the raw
// percentages are returned so the overlay can fall back to CSS percentages.
func Place(r Rect, rendered *Dimensions) Placement {
	if rendered.Known() {
		b := ToRenderedPixels(r, *rendered)
		return Placement{Unit: UnitPixel, Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height}
	}

	return Placement{Unit: UnitPercent, Left: r.X, Top: r.Y, Width: r.Width, Height: r.Height}
}

// Centered returns a size x size box centered in the image.
func Centered(size float64) Rect {
	offset := (Full - size) / 2
	return Rect{X: offset, Y: offset, Width: size, Height: size}
}

func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if hi < lo {
		hi = lo
	}
	return math.Min(hi, math.Max(lo, v))
}

func ClampSlider(v float64) float64 {
	return Clamp(v, 0, Full)
}

// Normalize re-establishes the editing invariants: the box keeps at least
// MinSize on each axis and never extends past the image edge. Position is
// bounded first, then size shrinks to fit.
func Normalize(r Rect) Rect {
	r.X = Clamp(r.X, 0, Full-MinSize)
	r.Y = Clamp(r.Y, 0, Full-MinSize)
	r.Width = Clamp(r.Width, MinSize, Full-r.X)
	r.Height = Clamp(r.Height, MinSize, Full-r.Y)
	return r
}
