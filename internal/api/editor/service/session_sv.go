package editorService

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/geometry"
	"safelens/pkg/imageinfo"
	"safelens/pkg/preview"
)

func newSessionID() string {
	return uuid.NewString()
}

func requestID(ctx context.Context) string {
	return contextPkg.GetRequestID(ctx)
}

// CreateSession uploads the picked image and opens an editing session on it.
// The local preview URL exists before the upload starts and is revoked again
// when the upload fails.
func (s *editorService) CreateSession(ctx context.Context, memberID int64, fileName string, data []byte) (*editor.SessionView, error) {
	info, probeErr := imageinfo.Probe(data)
	if errors.Is(probeErr, imageinfo.ErrEmpty) {
		return nil, editor.ErrInvalidImage
	}

	contentType := http.DetectContentType(data)
	if probeErr == nil {
		contentType = "image/" + info.Format
	}
	previewURL := s.blobs.Create(data, contentType, fileName)

	c, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	uploaded, err := s.client.UploadImage(c, fileName, data)
	if err != nil {
		s.blobs.Revoke(previewURL)
		s.log.WithFields(logFields(ctx, "", err)).Warn("Image upload failed")
		return nil, editor.ErrUploadFailed
	}

	if memberID <= 0 {
		memberID = s.cfg.DefaultMemberID
	}

	now := s.now()
	sess := &entity.EditSession{
		ID:                s.newID(),
		MemberID:          memberID,
		FileName:          fileName,
		ActiveImageHandle: uploaded.ImageUUID,
		DisplayedImageURL: previewURL,
		PreviewURL:        previewURL,
		Filter:            entity.FilterBlur,
		State:             entity.StateIdle,
		SliderPosition:    preview.DefaultPosition,
		DetectOptions:     entity.DefaultDetectOptions(),
		CreatedAt:         now,
	}
	if probeErr == nil {
		dims := info.Dimensions()
		sess.Natural = &dims
	}

	if err := s.save(ctx, sess); err != nil {
		s.blobs.Revoke(previewURL)
		return nil, err
	}

	s.log.WithFields(logFields(ctx, sess.ID, nil)).WithField("image_uuid", sess.ActiveImageHandle).Info("Editing session created")
	return viewOf(sess), nil
}

func (s *editorService) GetSession(ctx context.Context, id string) (*editor.SessionView, error) {
	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(sess), nil
}

// DiscardSession is the back-out path: the session is dropped and every
// object URL it still holds is revoked.
func (s *editorService) DiscardSession(ctx context.Context, id string) error {
	unlock := s.lock(id)
	sess, err := s.load(ctx, id)
	if err != nil {
		unlock()
		return err
	}

	revoked := 0
	for _, u := range sess.ObjectURLs() {
		if s.blobs.Owns(u) && s.blobs.Revoke(u) {
			revoked++
		}
	}
	err = s.repo.NewClient().Session.Delete(ctx, id)
	unlock()
	s.forget(id)

	if err != nil && !errors.Is(err, editor.ErrSessionNotFound) {
		return err
	}

	s.log.WithFields(logFields(ctx, id, nil)).WithField("revoked", revoked).Info("Editing session discarded")
	return nil
}

func (s *editorService) ReportImageLoad(ctx context.Context, id string, req editor.ImageLoadRequest) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		sess.Natural = &geometry.Dimensions{Width: req.NaturalWidth, Height: req.NaturalHeight}
		sess.Rendered = &entity.RenderedBox{
			Left:   req.Left,
			Top:    req.Top,
			Width:  req.ClientWidth,
			Height: req.ClientHeight,
		}
		return nil
	})
}

// ReportLayout records a new rendered box after the image was resized on
// screen.
func (s *editorService) ReportLayout(ctx context.Context, id string, req editor.LayoutRequest) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		sess.Rendered = &entity.RenderedBox{Left: req.Left, Top: req.Top, Width: req.Width, Height: req.Height}
		return nil
	})
}

func (s *editorService) SetDetectOptions(ctx context.Context, id string, req editor.DetectOptionsRequest) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		sess.DetectOptions = entity.DetectOptions{
			QR:       req.QR,
			Personal: req.Personal,
			Location: req.Location,
			Portrait: req.Portrait,
		}
		return nil
	})
}

// SetFilter selects the filter for the next edit. Picking a Pro filter
// without the Pro plan is refused so the client can offer the upgrade.
func (s *editorService) SetFilter(ctx context.Context, id string, req editor.FilterRequest) (*editor.SessionView, error) {
	filter, ok := entity.FilterFromWire(req.Filter)
	if !ok {
		return nil, editor.ErrInvalidFilter
	}

	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		if filter.RequiresPro() && !sess.ProUnlocked {
			return editor.ErrProRequired
		}
		sess.Filter = filter
		return nil
	})
}

// UnlockPro stands in for the billing upgrade: it unlocks Pro filters and
// selects AI removal.
func (s *editorService) UnlockPro(ctx context.Context, id string) (*editor.SessionView, error) {
	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		sess.ProUnlocked = true
		sess.Filter = entity.FilterAIRemove
		return nil
	})
}

func logFields(ctx context.Context, id string, err error) logrus.Fields {
	fields := logrus.Fields{"request_id": requestID(ctx)}
	if id != "" {
		fields["session_id"] = id
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	return fields
}
