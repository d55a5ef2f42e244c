package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style calls the client makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T) (ItfS3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		Region:          "ap-southeast-1",
		Bucket:          "shares",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)
	return client, fake
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(Config{Region: "ap-southeast-1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUploadPresignDelete(t *testing.T) {
	client, fake := newTestS3(t)
	ctx := context.Background()

	location, err := client.Upload(ctx, "shares/abc.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, location, "/shares/shares/abc.jpg")
	assert.Equal(t, []byte("jpeg"), fake.objects["/shares/shares/abc.jpg"])

	signed, err := client.PresignUrl(ctx, "shares/abc.jpg", 0)
	require.NoError(t, err)
	assert.Contains(t, signed, "X-Amz-Signature=")
	assert.Contains(t, signed, "X-Amz-Expires=900")

	signed, err = client.PresignUrl(ctx, "shares/abc.jpg", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.Contains(signed, "X-Amz-Expires=60"))

	require.NoError(t, client.DeleteFile(ctx, "shares/abc.jpg"))
	_, err = client.PresignUrl(ctx, "shares/abc.jpg", 0)
	assert.Error(t, err)
}
