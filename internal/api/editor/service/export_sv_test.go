package editorService

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safelens/internal/api/editor"
)

func TestDownload(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)

	_, err := f.svc.Download(ctx, view.ID)
	assert.ErrorIs(t, err, editor.ErrNotProcessed)

	_, err = f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	resp, err := f.svc.Download(ctx, view.ID)
	require.NoError(t, err)

	assert.Equal(t, "photo-edited.jpg", resp.FileName)
	assert.Equal(t, []string{"https://img.test/edited/img-2.jpg"}, f.client.fetched)

	blob, err := f.svc.ResolveBlob(resp.BlobURL)
	require.NoError(t, err)
	assert.Equal(t, f.image, blob.Data)
	assert.Equal(t, "photo-edited.jpg", blob.FileName)

	got, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "PROCESSED", got.State, "downloading does not touch the pipeline")

	assert.True(t, f.svc.RevokeBlob(resp.BlobURL))
	_, err = f.svc.ResolveBlob(resp.BlobURL)
	assert.ErrorIs(t, err, editor.ErrBlobNotFound)
}

func TestDownload_LinksAreScopedToTheSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)
	_, err := f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	first, err := f.svc.Download(ctx, view.ID)
	require.NoError(t, err)
	second, err := f.svc.Download(ctx, view.ID)
	require.NoError(t, err)

	_, err = f.svc.ResolveBlob(first.BlobURL)
	assert.ErrorIs(t, err, editor.ErrBlobNotFound, "a new download replaces the previous link")
	_, err = f.svc.ResolveBlob(second.BlobURL)
	require.NoError(t, err)

	require.NoError(t, f.svc.DiscardSession(ctx, view.ID))

	_, err = f.svc.ResolveBlob(second.BlobURL)
	assert.ErrorIs(t, err, editor.ErrBlobNotFound)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestDownload_FetchFailureIsIsolated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)
	_, err := f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	f.client.fetchErr = errors.New("timeout")
	_, err = f.svc.Download(ctx, view.ID)
	assert.ErrorIs(t, err, editor.ErrDownloadFailed)

	got, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "PROCESSED", got.State)
	assert.Empty(t, got.LastError)
}

func TestUpdateCompare(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)

	pos := 30.0
	_, err := f.svc.UpdateCompare(ctx, view.ID, editor.CompareRequest{Position: &pos})
	assert.ErrorIs(t, err, editor.ErrNotProcessed)

	_, err = f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateCompare(ctx, view.ID, editor.CompareRequest{})
	assert.ErrorIs(t, err, editor.ErrEmptyPatch)

	over := 130.0
	view, err = f.svc.UpdateCompare(ctx, view.ID, editor.CompareRequest{Position: &over, Side: "before"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.Compare.Position)
	assert.True(t, view.Compare.BeforeLoaded)
	assert.False(t, view.Compare.Ready)

	view, err = f.svc.UpdateCompare(ctx, view.ID, editor.CompareRequest{Side: "after"})
	require.NoError(t, err)
	assert.True(t, view.Compare.Ready)

	_, err = f.svc.UpdateCompare(ctx, view.ID, editor.CompareRequest{Side: "middle"})
	assert.ErrorIs(t, err, editor.ErrInvalidSide)

	_, err = f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)
	got, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Compare.Position, "a new edit resets the slider")
	assert.False(t, got.Compare.Ready)
}

func TestRenderPreviewAndCompare(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)

	out, err := f.svc.RenderPreview(ctx, view.ID)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())

	_, err = f.svc.RenderCompare(ctx, view.ID)
	assert.ErrorIs(t, err, editor.ErrNotProcessed)

	_, err = f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	out, err = f.svc.RenderCompare(ctx, view.ID)
	require.NoError(t, err)
	img, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestShare(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, nil)
		view := f.create(t)
		_, err := f.svc.Share(context.Background(), view.ID)
		assert.ErrorIs(t, err, editor.ErrShareUnavailable)
	})

	t.Run("uploads and presigns", func(t *testing.T) {
		store := &fakeS3{}
		f := newFixture(t, store)
		view := f.create(t)

		resp, err := f.svc.Share(context.Background(), view.ID)
		require.NoError(t, err)

		key := "shares/" + view.ID + "/photo-edited.jpg"
		assert.Equal(t, f.image, store.objects[key])
		assert.True(t, strings.HasPrefix(resp.URL, "https://bucket.test/"+key))
		assert.True(t, resp.ExpiresAt.After(f.svc.now()))
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newFixture(t, &fakeS3{err: errors.New("denied")})
		view := f.create(t)
		_, err := f.svc.Share(context.Background(), view.ID)
		assert.ErrorIs(t, err, editor.ErrShareFailed)
	})

	t.Run("presign failure removes the upload", func(t *testing.T) {
		store := &fakeS3{presignErr: errors.New("expired credentials")}
		f := newFixture(t, store)
		view := f.create(t)
		_, err := f.svc.Share(context.Background(), view.ID)
		assert.ErrorIs(t, err, editor.ErrShareFailed)
		assert.Empty(t, store.objects)
	})
}

func TestExportImage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)

	data, contentType, err := f.svc.ExportImage(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, f.image, data)
	assert.Equal(t, "image/png", contentType)
	assert.Empty(t, f.client.fetched, "the original preview is served locally")

	_, err = f.svc.Edit(ctx, view.ID)
	require.NoError(t, err)

	_, _, err = f.svc.ExportImage(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/edited/img-2.jpg"}, f.client.fetched)
}

func TestManualRegions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view := f.analyzed(t)
	detected := view.Regions[0].ID

	view, err := f.svc.AddManualRegion(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, view.Regions, 2)
	manual := view.Regions[1]
	assert.True(t, strings.HasPrefix(manual.ID, "manual-"))
	assert.Equal(t, "ETC", manual.Category)
	assert.Equal(t, 40.0, manual.X)
	assert.Equal(t, 20.0, manual.Width)

	w := 90.0
	view, err = f.svc.MutateRegion(ctx, view.ID, manual.ID, editor.MutateRegionRequest{Width: &w})
	require.NoError(t, err)
	assert.Equal(t, 60.0, view.Regions[1].Width, "clamped to 100 - x")

	_, err = f.svc.MutateRegion(ctx, view.ID, manual.ID, editor.MutateRegionRequest{})
	assert.ErrorIs(t, err, editor.ErrEmptyPatch)
	_, err = f.svc.MutateRegion(ctx, view.ID, "nope", editor.MutateRegionRequest{Width: &w})
	assert.ErrorIs(t, err, editor.ErrRegionNotFound)

	view, err = f.svc.RemoveManualRegion(ctx, view.ID, detected)
	require.NoError(t, err)
	assert.Len(t, view.Regions, 2, "detected regions cannot be removed")

	view, err = f.svc.RemoveManualRegion(ctx, view.ID, manual.ID)
	require.NoError(t, err)
	assert.Len(t, view.Regions, 1)

	_, err = f.svc.ToggleRegion(ctx, view.ID, manual.ID)
	assert.ErrorIs(t, err, editor.ErrRegionNotFound)
}

func TestAddManualRegion_NoDimensions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view, err := f.svc.CreateSession(ctx, 0, "notes.txt", []byte("plain text"))
	require.NoError(t, err)

	_, err = f.svc.AddManualRegion(ctx, view.ID)
	assert.ErrorIs(t, err, editor.ErrNoDimensions)

	got, err := f.svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Regions)
}
