package objecturl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateResolveRevoke(t *testing.T) {
	r := New("/api/v1/blobs")

	url := r.Create([]byte("abc"), "image/png", "cat-edited.png")
	require.True(t, r.Owns(url))
	assert.Regexp(t, `^/api/v1/blobs/[0-9A-Z]{26}$`, url)

	b, ok := r.Resolve(url)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), b.Data)
	assert.Equal(t, "image/png", b.ContentType)
	assert.Equal(t, "cat-edited.png", b.FileName)

	byID, ok := r.Resolve(b.ID)
	require.True(t, ok)
	assert.Equal(t, b.ID, byID.ID)

	assert.True(t, r.Revoke(url))
	assert.False(t, r.Revoke(url))
	_, ok = r.Resolve(url)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestOwns(t *testing.T) {
	r := New("/api/v1/blobs/")
	assert.False(t, r.Owns("https://img.example.com/edited/x.jpg"))
}

func TestSweep(t *testing.T) {
	r := New("/b/")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r.now = func() time.Time { return base }
	old := r.Create([]byte("old"), "image/jpeg", "")
	r.now = func() time.Time { return base.Add(time.Hour) }
	fresh := r.Create([]byte("fresh"), "image/jpeg", "")

	assert.Equal(t, 1, r.Sweep(base.Add(30*time.Minute)))

	_, ok := r.Resolve(old)
	assert.False(t, ok)
	_, ok = r.Resolve(fresh)
	assert.True(t, ok)
}
