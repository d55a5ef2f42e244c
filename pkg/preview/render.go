package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
)

// Renderer draws a local approximation of the filters. The real edit comes
// from the edit API; this is only what the user sees before applying it.
type Renderer struct {
	BlurSigma   float64
	MosaicCell  int
	Tint        color.NRGBA
	TintOpacity float64
	Quality     int
}

func NewRenderer() *Renderer {
	return &Renderer{
		BlurSigma:   12,
		MosaicCell:  8,
		Tint:        color.NRGBA{R: 124, G: 58, B: 237, A: 255},
		TintOpacity: 0.3,
		Quality:     85,
	}
}

func (r *Renderer) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (r *Renderer) EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(r.Quality))
}

// ApplyFilter returns a copy of img with the filter drawn inside every rect.
// Rects are natural pixels and are clipped to the image.
func (r *Renderer) ApplyFilter(img image.Image, rects []geometry.PixelRect, filter entity.Filter) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	for _, pr := range rects {
		rect := image.Rect(pr.X, pr.Y, pr.X+pr.Width, pr.Y+pr.Height).Add(bounds.Min).Intersect(bounds)
		if rect.Empty() {
			continue
		}

		part := imaging.Crop(out, rect)
		var filtered *image.NRGBA
		switch filter {
		case entity.FilterBlur:
			filtered = imaging.Blur(part, r.BlurSigma)
		case entity.FilterMosaic:
			filtered = r.mosaic(part)
		case entity.FilterAIRemove:
			filtered = imaging.Overlay(part, imaging.New(rect.Dx(), rect.Dy(), r.Tint), image.Pt(0, 0), r.TintOpacity)
		default:
			continue
		}

		out = imaging.Paste(out, filtered, rect.Min.Sub(bounds.Min))
	}

	return out
}

func (r *Renderer) mosaic(img *image.NRGBA) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	cell := max(1, r.MosaicCell)
	small := imaging.Resize(img, max(1, w/cell), max(1, h/cell), imaging.Box)
	return imaging.Resize(small, w, h, imaging.NearestNeighbor)
}

// Composite shows before left of the split and after right of it. after is
// scaled to before's size when they differ.
func (r *Renderer) Composite(before, after image.Image, position float64) *image.NRGBA {
	out := imaging.Clone(before)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	if after.Bounds().Dx() != w || after.Bounds().Dy() != h {
		after = imaging.Resize(after, w, h, imaging.Lanczos)
	}

	split := int(math.Round(geometry.ClampSlider(position) / geometry.Full * float64(w)))
	if split >= w {
		return out
	}

	right := imaging.Crop(after, image.Rect(split, 0, w, h).Add(after.Bounds().Min))
	return imaging.Paste(out, right, image.Pt(split, 0))
}
