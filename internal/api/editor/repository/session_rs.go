package editorRepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"safelens/internal/api/editor"
	"safelens/internal/entity"
	contextPkg "safelens/pkg/context"
	redisPkg "safelens/pkg/redis"
)

type sessionRepository struct {
	redis redisPkg.IRedis
	ttl   time.Duration
	log   *logrus.Logger
}

func (r *sessionRepository) Save(ctx context.Context, session *entity.EditSession) error {
	if err := r.redis.SetJSON(ctx, sessionKey(session.ID), session, r.ttl); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": session.ID,
			"error":      err.Error(),
		}).Error("Failed to save editing session")
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*entity.EditSession, error) {
	var session entity.EditSession
	if err := r.redis.GetJSON(ctx, sessionKey(id), &session); err != nil {
		if errors.Is(err, redisPkg.ErrNotFound) {
			return nil, editor.ErrSessionNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to load editing session")
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.redis.Delete(ctx, sessionKey(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if !deleted {
		return editor.ErrSessionNotFound
	}
	return nil
}
