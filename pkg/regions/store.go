package regions

import (
	"errors"
	"fmt"
	"slices"

	"github.com/oklog/ulid/v2"

	"safelens/internal/entity"
	"safelens/pkg/geometry"
)

var (
	ErrNoDimensions = errors.New("natural image dimensions are not known yet")
	ErrNotFound     = errors.New("region not found")
)

const manualPrefix = "manual-"

// Patch is a partial update of a region's percentage box. Nil fields are
// left untouched.
type Patch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

func (p Patch) Empty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil
}

// Store is the ordered region list of one editing session. It is not safe
// for concurrent use; the owning session serializes access.
type Store struct {
	regions []entity.DetectionRegion
	newID   func() string
}

type Option func(*Store)

// WithIDFunc overrides how manual region ids are generated.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

func New(initial []entity.DetectionRegion, opts ...Option) *Store {
	s := &Store{
		regions: slices.Clone(initial),
		newID: func() string {
			return manualPrefix + ulid.Make().String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceAll drops every region, manual ones included, and installs the
// given list as-is.
func (s *Store) ReplaceAll(list []entity.DetectionRegion) {
	s.regions = slices.Clone(list)
}

func (s *Store) ToggleActive(id string) (entity.DetectionRegion, bool) {
	i := s.index(id)
	if i < 0 {
		return entity.DetectionRegion{}, false
	}
	s.regions[i].IsActive = !s.regions[i].IsActive
	return s.regions[i], true
}

// AddManual appends a user-drawn box centered in the image.
func (s *Store) AddManual(natural *geometry.Dimensions) (entity.DetectionRegion, error) {
	if !natural.Known() {
		return entity.DetectionRegion{}, ErrNoDimensions
	}

	r := entity.DetectionRegion{
		ID:       s.newID(),
		Category: entity.CategoryOther,
		Label:    entity.CategoryOther.Label(),
		IsActive: true,
		IsManual: true,
	}
	r.SetRect(geometry.Centered(geometry.DefaultSize))

	s.regions = append(s.regions, r)
	return r, nil
}

// RemoveManual deletes a manual region. Detected regions can only be
// deactivated, so removing one reports false and changes nothing.
func (s *Store) RemoveManual(id string) bool {
	i := s.index(id)
	if i < 0 || !s.regions[i].IsManual {
		return false
	}
	s.regions = slices.Delete(s.regions, i, i+1)
	return true
}

// Mutate applies the patch and re-clamps the box to the image.
func (s *Store) Mutate(id string, patch Patch) (entity.DetectionRegion, error) {
	i := s.index(id)
	if i < 0 {
		return entity.DetectionRegion{}, fmt.Errorf("region %q: %w", id, ErrNotFound)
	}

	rect := s.regions[i].Rect()
	if patch.X != nil {
		rect.X = *patch.X
	}
	if patch.Y != nil {
		rect.Y = *patch.Y
	}
	if patch.Width != nil {
		rect.Width = *patch.Width
	}
	if patch.Height != nil {
		rect.Height = *patch.Height
	}

	s.regions[i].SetRect(geometry.Normalize(rect))
	return s.regions[i], nil
}

func (s *Store) Get(id string) (entity.DetectionRegion, bool) {
	i := s.index(id)
	if i < 0 {
		return entity.DetectionRegion{}, false
	}
	return s.regions[i], true
}

func (s *Store) All() []entity.DetectionRegion {
	return slices.Clone(s.regions)
}

func (s *Store) Active() []entity.DetectionRegion {
	var out []entity.DetectionRegion
	for _, r := range s.regions {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Len() int {
	return len(s.regions)
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.regions, func(r entity.DetectionRegion) bool {
		return r.ID == id
	})
}
