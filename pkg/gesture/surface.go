package gesture

import (
	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/regions"
)

// SessionSurface edits an EditSession in place. Swap Session between
// batches when the session is reloaded from storage.
type SessionSurface struct {
	Session *entity.EditSession
}

func (s *SessionSurface) Rendered() *entity.RenderedBox {
	if s.Session == nil {
		return nil
	}
	return s.Session.Rendered
}

func (s *SessionSurface) Region(id string) (entity.DetectionRegion, bool) {
	if s.Session == nil {
		return entity.DetectionRegion{}, false
	}
	return regions.New(s.Session.Regions).Get(id)
}

func (s *SessionSurface) Mutate(id string, patch regions.Patch) (entity.DetectionRegion, error) {
	if s.Session == nil {
		return entity.DetectionRegion{}, regions.ErrNotFound
	}
	store := regions.New(s.Session.Regions)
	r, err := store.Mutate(id, patch)
	if err != nil {
		return r, err
	}
	s.Session.Regions = store.All()
	return r, nil
}

func (s *SessionSurface) Toggle(id string) (entity.DetectionRegion, bool) {
	if s.Session == nil {
		return entity.DetectionRegion{}, false
	}
	store := regions.New(s.Session.Regions)
	r, ok := store.ToggleActive(id)
	if ok {
		s.Session.Regions = store.All()
	}
	return r, ok
}

func (s *SessionSurface) SetSlider(position float64) float64 {
	position = geometry.ClampSlider(position)
	if s.Session != nil {
		s.Session.SliderPosition = position
	}
	return position
}
