package editorRepository

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// memorySessionRepository stores encoded copies so callers never share a
// session value with the store.
type memorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Logger
}

func newMemorySessionRepository(ttl time.Duration, log *logrus.Logger) *memorySessionRepository {
	return &memorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		log:     log,
	}
}

func (r *memorySessionRepository) Save(_ context.Context, session *entity.EditSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[session.ID] = memoryEntry{payload: payload, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*entity.EditSession, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && !r.now().Before(entry.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, editor.ErrSessionNotFound
	}

	var session entity.EditSession
	if err := json.Unmarshal(entry.payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	delete(r.entries, id)
	if !ok || !r.now().Before(entry.expiresAt) {
		return editor.ErrSessionNotFound
	}
	return nil
}
