package editorService

import (
	"context"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	"safelens/pkg/regions"
)

// AddManualRegion inserts a centered box. It is refused while the natural
// image size is unknown.
func (s *editorService) AddManualRegion(ctx context.Context, id string) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		store := regions.New(sess.Regions)
		if _, err := store.AddManual(sess.Natural); err != nil {
			return domainError(err)
		}
		sess.Regions = store.All()
		return nil
	})
}

// RemoveManualRegion deletes a manually added box. Detected regions are left
// alone; they can only be switched off.
func (s *editorService) RemoveManualRegion(ctx context.Context, id, regionID string) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		store := regions.New(sess.Regions)
		if _, ok := store.Get(regionID); !ok {
			return editor.ErrRegionNotFound
		}
		if store.RemoveManual(regionID) {
			sess.Regions = store.All()
		}
		return nil
	})
}

func (s *editorService) ToggleRegion(ctx context.Context, id, regionID string) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		store := regions.New(sess.Regions)
		if _, ok := store.ToggleActive(regionID); !ok {
			return editor.ErrRegionNotFound
		}
		sess.Regions = store.All()
		return nil
	})
}

func (s *editorService) MutateRegion(ctx context.Context, id, regionID string, req editor.MutateRegionRequest) (*editor.SessionView, error) {
	patch := regions.Patch{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	if patch.Empty() {
		return nil, editor.ErrEmptyPatch
	}

	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		store := regions.New(sess.Regions)
		if _, err := store.Mutate(regionID, patch); err != nil {
			return domainError(err)
		}
		sess.Regions = store.All()
		return nil
	})
}
