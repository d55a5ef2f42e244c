package editorService

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	"safelens/pkg/geometry"
	"safelens/pkg/objecturl"
	"safelens/pkg/preview"
	"safelens/pkg/regions"
	"safelens/pkg/utils"
)

// UpdateCompare moves the before/after slider or records that one side of
// the comparison has loaded.
func (s *editorService) UpdateCompare(ctx context.Context, id string, req editor.CompareRequest) (*editor.SessionView, error) {
	if req.Position == nil && req.Side == "" {
		return nil, editor.ErrEmptyPatch
	}

	return s.updateView(ctx, id, func(sess *entity.EditSession) error {
		if sess.CompareSnapshot == nil {
			return editor.ErrNotProcessed
		}
		slider := preview.SliderFor(sess)
		if req.Position != nil {
			slider.SetPosition(*req.Position)
		}
		if req.Side != "" {
			if err := slider.MarkLoaded(preview.Side(req.Side)); err != nil {
				return editor.ErrInvalidSide
			}
		}
		return nil
	})
}

// RenderPreview draws the selected filter over the active regions of the
// displayed image. It is a local approximation; the real edit comes from the
// API.
func (s *editorService) RenderPreview(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Natural.Known() {
		return nil, editor.ErrNoDimensions
	}

	img, err := s.decode(ctx, sess.DisplayedImageURL)
	if err != nil {
		return nil, err
	}

	active := regions.New(sess.Regions).Active()
	rects := make([]geometry.PixelRect, 0, len(active))
	for _, r := range active {
		rects = append(rects, geometry.ToNaturalPixels(r.Rect(), *sess.Natural))
	}

	return s.encode(s.renderer.ApplyFilter(img, rects, sess.Filter))
}

// RenderCompare draws the before image left of the slider and the after
// image right of it.
func (s *editorService) RenderCompare(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.CompareSnapshot == nil {
		return nil, editor.ErrNotProcessed
	}

	before, err := s.decode(ctx, sess.CompareSnapshot.PreviousURL)
	if err != nil {
		return nil, err
	}
	after, err := s.decode(ctx, sess.CompareSnapshot.CurrentURL)
	if err != nil {
		return nil, err
	}

	return s.encode(s.renderer.Composite(before, after, sess.SliderPosition))
}

// Download fetches the processed image into a local object URL with a
// save-as file name. The session keeps only its latest download link, so a
// new download revokes the previous one. The pipeline state is not touched.
func (s *editorService) Download(ctx context.Context, id string) (*editor.DownloadResponse, error) {
	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.CompareSnapshot == nil {
		return nil, editor.ErrNotProcessed
	}

	data, contentType, err := s.fetch(ctx, sess.DisplayedImageURL)
	if err != nil {
		s.log.WithFields(logFields(ctx, id, err)).Warn("Download failed")
		return nil, editor.ErrDownloadFailed
	}

	fileName := utils.EditedFileName(sess.FileName, sess.DisplayedImageURL)
	blobURL := s.blobs.Create(data, contentType, fileName)

	_, err = s.update(ctx, id, func(sess *entity.EditSession) error {
		if prev := sess.DownloadURL; prev != "" && s.blobs.Owns(prev) {
			s.blobs.Revoke(prev)
		}
		sess.DownloadURL = blobURL
		return nil
	})
	if err != nil {
		s.blobs.Revoke(blobURL)
		return nil, err
	}

	return &editor.DownloadResponse{FileName: fileName, BlobURL: blobURL}, nil
}

// Share uploads the current image to S3 and returns a presigned link.
func (s *editorService) Share(ctx context.Context, id string) (*editor.ShareResponse, error) {
	if s.s3Client == nil {
		return nil, editor.ErrShareUnavailable
	}

	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}

	data, contentType, err := s.fetch(ctx, sess.DisplayedImageURL)
	if err != nil {
		s.log.WithFields(logFields(ctx, id, err)).Warn("Fetching image to share failed")
		return nil, editor.ErrDownloadFailed
	}

	key := fmt.Sprintf("shares/%s/%s", sess.ID, utils.EditedFileName(sess.FileName, sess.DisplayedImageURL))

	c, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	if _, err := s.s3Client.Upload(c, key, data, contentType); err != nil {
		s.log.WithFields(logFields(ctx, id, err)).Error("Share upload failed")
		return nil, editor.ErrShareFailed
	}
	url, err := s.s3Client.PresignUrl(c, key, s.cfg.ShareTTL)
	if err != nil {
		s.log.WithFields(logFields(ctx, id, err)).Error("Presigning share link failed")
		if delErr := s.s3Client.DeleteFile(c, key); delErr != nil {
			s.log.WithFields(logFields(ctx, id, delErr)).WithField("key", key).Warn("Removing unshared object failed")
		}
		return nil, editor.ErrShareFailed
	}

	return &editor.ShareResponse{URL: url, ExpiresAt: s.now().Add(s.cfg.ShareTTL)}, nil
}

// ExportImage returns the bytes of the displayed image: the processed one
// after an edit, the original preview before.
func (s *editorService) ExportImage(ctx context.Context, id string) ([]byte, string, error) {
	sess, err := s.read(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data, contentType, err := s.fetch(ctx, sess.DisplayedImageURL)
	if err != nil {
		s.log.WithFields(logFields(ctx, id, err)).Warn("Exporting image failed")
		return nil, "", editor.ErrDownloadFailed
	}
	return data, contentType, nil
}

func (s *editorService) ResolveBlob(id string) (objecturl.Blob, error) {
	blob, ok := s.blobs.Resolve(id)
	if !ok {
		return objecturl.Blob{}, editor.ErrBlobNotFound
	}
	return blob, nil
}

func (s *editorService) RevokeBlob(id string) bool {
	return s.blobs.Revoke(id)
}

// fetch reads an image from the local registry when it owns the URL and
// from the network otherwise.
func (s *editorService) fetch(ctx context.Context, url string) ([]byte, string, error) {
	if s.blobs.Owns(url) {
		blob, ok := s.blobs.Resolve(url)
		if !ok {
			return nil, "", editor.ErrBlobNotFound
		}
		return blob.Data, blob.ContentType, nil
	}

	c, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	return s.client.FetchImage(c, url)
}

func (s *editorService) decode(ctx context.Context, url string) (image.Image, error) {
	data, _, err := s.fetch(ctx, url)
	if err != nil {
		s.log.WithFields(logFields(ctx, "", err)).WithField("url", url).Warn("Fetching image for rendering failed")
		return nil, editor.ErrDownloadFailed
	}
	img, err := s.renderer.Decode(data)
	if err != nil {
		return nil, editor.ErrInvalidImage
	}
	return img, nil
}

func (s *editorService) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.renderer.EncodeJPEG(&buf, img); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
