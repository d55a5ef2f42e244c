package preview

import (
	"fmt"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
)

const DefaultPosition = 50.0

type Side string

const (
	SideBefore Side = "before"
	SideAfter  Side = "after"
)

// Slider is the before/after reveal control of a session. The position is
// the percentage of the rendered width showing the before image.
type Slider struct {
	s *entity.EditSession
}

func SliderFor(s *entity.EditSession) *Slider {
	return &Slider{s: s}
}

func (sl *Slider) Position() float64 {
	return sl.s.SliderPosition
}

func (sl *Slider) SetPosition(position float64) float64 {
	sl.s.SliderPosition = geometry.ClampSlider(position)
	return sl.s.SliderPosition
}

func (sl *Slider) MarkLoaded(side Side) error {
	switch side {
	case SideBefore:
		sl.s.BeforeLoaded = true
	case SideAfter:
		sl.s.AfterLoaded = true
	default:
		return fmt.Errorf("unknown slider side %q", side)
	}
	return nil
}

// Ready reports whether both images have loaded and the slider can be shown.
func (sl *Slider) Ready() bool {
	return sl.s.CompareSnapshot != nil && sl.s.BeforeLoaded && sl.s.AfterLoaded
}

// Reset starts a new comparison: centered, nothing loaded.
func (sl *Slider) Reset() {
	sl.s.SliderPosition = DefaultPosition
	sl.s.BeforeLoaded = false
	sl.s.AfterLoaded = false
}
