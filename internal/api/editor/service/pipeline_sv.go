package editorService

import (
	"context"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/pipeline"
	"safelens/pkg/preview"
	"safelens/pkg/regions"
	"safelens/pkg/safelens"
)

// Detect runs an analysis. Regions are cleared as soon as it starts and
// stay cleared when it fails. The session lock is not held during the API
// call; the pipeline state rejects a second trigger in the meantime.
func (s *editorService) Detect(ctx context.Context, id string) (*editor.SessionView, error) {
	var req safelens.DetectRequest
	_, err := s.update(ctx, id, func(sess *entity.EditSession) error {
		categories := sess.DetectOptions.Categories()
		if len(categories) == 0 {
			return editor.ErrNoCategories
		}
		if !sess.Natural.Known() {
			return editor.ErrNoDimensions
		}
		if err := pipeline.For(sess).BeginAnalyze(); err != nil {
			return domainError(err)
		}

		sess.Regions = nil
		req = safelens.DetectRequest{ImageUUID: sess.ActiveImageHandle}
		for _, c := range categories {
			req.DetectTargets = append(req.DetectTargets, c.Wire())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	resp, callErr := s.client.RequestDetect(c, req)
	cancel()

	detected := 0
	sess, err := s.update(ctx, id, func(sess *entity.EditSession) error {
		m := pipeline.For(sess)
		if callErr != nil {
			return m.FailAnalyze(editor.ErrDetectFailed)
		}
		var natural geometry.Dimensions
		if sess.Natural != nil {
			natural = *sess.Natural
		}
		store := regions.New(nil)
		store.ReplaceAll(regions.FromDetections(toDetections(resp.Detections), natural))
		sess.Regions = store.All()
		detected = store.Len()
		return m.CompleteAnalyze()
	})
	if err != nil {
		return nil, err
	}

	if callErr != nil {
		s.log.WithFields(logFields(ctx, id, callErr)).Warn("Detection request failed")
		return nil, editor.ErrDetectFailed
	}

	s.log.WithFields(logFields(ctx, id, nil)).WithField("regions", detected).Info("Detection completed")
	return viewOf(sess), nil
}

// Edit applies the selected filter to the active regions. On success the
// edited image becomes the working image and a before/after snapshot is
// taken. On failure the session is unchanged apart from the error message.
func (s *editorService) Edit(ctx context.Context, id string) (*editor.SessionView, error) {
	var req safelens.EditRequest
	_, err := s.update(ctx, id, func(sess *entity.EditSession) error {
		if sess.State.Busy() {
			return editor.ErrInProgress
		}
		if !sess.State.Analyzed() {
			return editor.ErrNotAnalyzed
		}
		if !sess.Natural.Known() {
			return editor.ErrNoDimensions
		}
		active := regions.New(sess.Regions).Active()
		if len(active) == 0 {
			return editor.ErrNothingToApply
		}
		if sess.Filter.RequiresPro() && !sess.ProUnlocked {
			return editor.ErrProRequired
		}
		if err := pipeline.For(sess).BeginProcess(); err != nil {
			return domainError(err)
		}

		req = safelens.EditRequest{
			ImageUUID: sess.ActiveImageHandle,
			MemberID:  sess.MemberID,
			Filter:    sess.Filter.Wire(),
			Regions:   toPayload(active, *sess.Natural),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	resp, callErr := s.client.RequestEdit(c, req)
	cancel()

	sess, err := s.update(ctx, id, func(sess *entity.EditSession) error {
		m := pipeline.For(sess)
		if callErr != nil {
			return m.FailProcess(editor.ErrEditFailed)
		}

		newURL := resp.NewURL
		if newURL == "" {
			newURL = s.client.BuildImageURL(resp.NewUUID, safelens.ImageEdited)
		}
		previous := sess.DisplayedImageURL

		if resp.NewUUID != "" {
			sess.ActiveImageHandle = resp.NewUUID
		}
		sess.DisplayedImageURL = newURL
		sess.CompareSnapshot = &entity.CompareSnapshot{PreviousURL: previous, CurrentURL: newURL}
		preview.SliderFor(sess).Reset()
		return m.CompleteProcess()
	})
	if err != nil {
		return nil, err
	}

	if callErr != nil {
		s.log.WithFields(logFields(ctx, id, callErr)).Warn("Edit request failed")
		return nil, editor.ErrEditFailed
	}

	s.log.WithFields(logFields(ctx, id, nil)).WithField("history_id", resp.HistoryID).Info("Edit applied")
	return viewOf(sess), nil
}

func toDetections(in []safelens.Region) []regions.Detection {
	out := make([]regions.Detection, 0, len(in))
	for _, r := range in {
		out = append(out, regions.Detection{
			Category:   r.Category,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
			DetectID:   r.DetectID,
			Confidence: r.Confidence,
		})
	}
	return out
}

// toPayload converts active regions back to rounded natural pixels.
func toPayload(active []entity.DetectionRegion, natural geometry.Dimensions) []safelens.Region {
	out := make([]safelens.Region, 0, len(active))
	for _, r := range active {
		px := geometry.ToNaturalPixels(r.Rect(), natural)
		out = append(out, safelens.Region{
			Category: r.Category.Wire(),
			X:        float64(px.X),
			Y:        float64(px.Y),
			Width:    float64(px.Width),
			Height:   float64(px.Height),
			DetectID: r.ServerDetectID,
		})
	}
	return out
}
