package imageinfo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"safelens/pkg/geometry"
)

var ErrEmpty = errors.New("empty image data")

// Info is the decoded header of an image. Width and Height are the
// displayed size, i.e. already swapped for EXIF orientations 5 to 8.
type Info struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	Orientation int    `json:"orientation"`
}

func (i Info) Dimensions() geometry.Dimensions {
	return geometry.Dimensions{Width: float64(i.Width), Height: float64(i.Height)}
}

// Probe reads the image header without decoding pixels.
func Probe(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("failed to read image header: %w", err)
	}

	info := Info{Width: cfg.Width, Height: cfg.Height, Format: format, Orientation: 1}
	if format == "jpeg" || format == "tiff" {
		info.Orientation = orientation(data)
	}
	info.Width, info.Height = orientedSize(info.Width, info.Height, info.Orientation)

	return info, nil
}

func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// orientations 5-8 rotate by 90 degrees
func orientedSize(w, h, orientation int) (int, int) {
	if orientation >= 5 && orientation <= 8 {
		return h, w
	}
	return w, h
}
