package editorService

import (
	"safelens/internal/api/editor"
	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/preview"
)

// viewOf is what the client paints: each region with its on-screen
// placement, its natural pixel box and the overlay style of the filter.
func viewOf(sess *entity.EditSession) *editor.SessionView {
	rendered := sess.Rendered.Dimensions()

	view := &editor.SessionView{
		ID:                sess.ID,
		MemberID:          sess.MemberID,
		FileName:          sess.FileName,
		ImageUUID:         sess.ActiveImageHandle,
		DisplayedImageURL: sess.DisplayedImageURL,
		PreviewURL:        sess.PreviewURL,
		Filter:            sess.Filter.Wire(),
		State:             sess.State.String(),
		Analyzed:          sess.State.Analyzed(),
		Busy:              sess.State.Busy(),
		LastError:         sess.LastError,
		Regions:           make([]editor.RegionView, 0, len(sess.Regions)),
		Natural:           sess.Natural,
		Rendered:          sess.Rendered,
		DetectOptions:     sess.DetectOptions,
		ProUnlocked:       sess.ProUnlocked,
		CreatedAt:         sess.CreatedAt,
		UpdatedAt:         sess.UpdatedAt,
	}

	for _, r := range sess.Regions {
		rv := editor.RegionView{
			ID:             r.ID,
			Category:       r.Category.Wire(),
			Label:          r.Label,
			X:              r.X,
			Y:              r.Y,
			Width:          r.Width,
			Height:         r.Height,
			IsActive:       r.IsActive,
			IsManual:       r.IsManual,
			ServerDetectID: r.ServerDetectID,
			Placement:      geometry.Place(r.Rect(), rendered),
			Style:          preview.FilterStyle(sess.Filter, r.IsActive),
		}
		if sess.Natural.Known() {
			px := geometry.ToNaturalPixels(r.Rect(), *sess.Natural)
			rv.Pixels = &px
		}
		if r.IsActive {
			view.ActiveRegions++
		}
		view.Regions = append(view.Regions, rv)
	}

	view.CanApply = view.Analyzed && !view.Busy && view.ActiveRegions > 0 &&
		(!sess.Filter.RequiresPro() || sess.ProUnlocked)

	if snap := sess.CompareSnapshot; snap != nil {
		slider := preview.SliderFor(sess)
		view.Compare = &editor.CompareView{
			PreviousURL:  snap.PreviousURL,
			CurrentURL:   snap.CurrentURL,
			Position:     slider.Position(),
			BeforeLoaded: sess.BeforeLoaded,
			AfterLoaded:  sess.AfterLoaded,
			Ready:        slider.Ready(),
		}
	}

	return view
}
