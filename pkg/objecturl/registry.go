package objecturl

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Blob struct {
	ID          string
	ContentType string
	FileName    string
	Data        []byte
	CreatedAt   time.Time
}

// Registry keeps blobs behind local URLs until they are revoked. It is the
// server side counterpart of URL.createObjectURL.
type Registry struct {
	mu     sync.RWMutex
	prefix string
	blobs  map[string]*Blob
	now    func() time.Time
}

// New returns a registry whose URLs are prefix + id, e.g. "/api/v1/blobs/".
func New(prefix string) *Registry {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Registry{
		prefix: prefix,
		blobs:  make(map[string]*Blob),
		now:    time.Now,
	}
}

func (r *Registry) Create(data []byte, contentType, fileName string) string {
	now := r.now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	r.mu.Lock()
	r.blobs[id] = &Blob{
		ID:          id,
		ContentType: contentType,
		FileName:    fileName,
		Data:        data,
		CreatedAt:   now,
	}
	r.mu.Unlock()

	return r.prefix + id
}

// Resolve accepts either a full object URL or a bare id.
func (r *Registry) Resolve(urlOrID string) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blobs[r.id(urlOrID)]
	if !ok {
		return Blob{}, false
	}
	return *b, true
}

func (r *Registry) Revoke(urlOrID string) bool {
	id := r.id(urlOrID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blobs[id]; !ok {
		return false
	}
	delete(r.blobs, id)
	return true
}

// Owns reports whether url was issued by this registry.
func (r *Registry) Owns(url string) bool {
	return strings.HasPrefix(url, r.prefix)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// Sweep revokes every blob created before cutoff and returns how many went.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, b := range r.blobs {
		if b.CreatedAt.Before(cutoff) {
			delete(r.blobs, id)
			n++
		}
	}
	return n
}

// Janitor sweeps blobs older than ttl every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, ttl, interval time.Duration, onSweep func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now().Add(-ttl)); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (r *Registry) id(urlOrID string) string {
	return strings.TrimPrefix(urlOrID, r.prefix)
}
