package editorRepository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"safelens/internal/entity"
	redisPkg "safelens/pkg/redis"
)

const keyPrefix = "safelens:session:"

// DefaultTTL is how long an idle editing session is kept.
const DefaultTTL = 2 * time.Hour

type ISessionRepository interface {
	Save(ctx context.Context, session *entity.EditSession) error
	Get(ctx context.Context, id string) (*entity.EditSession, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	NewClient() Client
}

type Client struct {
	Session ISessionRepository
}

type repository struct {
	session ISessionRepository
}

// New stores sessions in redis. Every save refreshes the TTL.
func New(redis redisPkg.IRedis, ttl time.Duration, log *logrus.Logger) Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &repository{
		session: &sessionRepository{redis: redis, ttl: ttl, log: log},
	}
}

// NewMemory keeps sessions in process. It is used when no redis address is
// configured and in tests.
func NewMemory(ttl time.Duration, log *logrus.Logger) Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &repository{
		session: newMemorySessionRepository(ttl, log),
	}
}

func (r *repository) NewClient() Client {
	return Client{Session: r.session}
}

func sessionKey(id string) string {
	return keyPrefix + id
}
