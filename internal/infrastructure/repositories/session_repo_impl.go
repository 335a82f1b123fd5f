package repositories

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/pkg/logger"
	"chamado.backend/pkg/redis"
)

const userSessionsPrefix = "user_sessions:"

// SessionRepository stores sessions encrypted in Redis and indexes them by
// profile id so a status change can reach every live session of a user.
type SessionRepository struct {
	store *redis.SessionStore
	ttl   time.Duration
}

var (
	sessionIndexAdd     = redis.SAdd
	sessionIndexMembers = redis.SMembers
	sessionIndexRemove  = redis.SRem
)

// NewSessionRepository creates a new session repository
func NewSessionRepository(store *redis.SessionStore, ttl time.Duration) *SessionRepository {
	return &SessionRepository{store: store, ttl: ttl}
}

// Save writes the session and refreshes its index entry
func (r *SessionRepository) Save(ctx context.Context, session *entities.Session) error {
	if session == nil || session.ID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.store.Save(ctx, session.ID, session, r.ttl); err != nil {
		return err
	}
	if session.Profile != nil {
		return sessionIndexAdd(ctx, userSessionsPrefix+session.Profile.ID, r.ttl, session.ID)
	}
	return nil
}

// Get loads a session by id
func (r *SessionRepository) Get(ctx context.Context, id string) (*entities.Session, error) {
	var s entities.Session
	if err := r.store.Load(ctx, id, &s); err != nil {
		if redis.IsNil(err) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete removes a session. Missing sessions are not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil && err != domainerrors.ErrNotFound {
		return err
	}
	if s != nil && s.Profile != nil {
		if err := sessionIndexRemove(ctx, userSessionsPrefix+s.Profile.ID, id); err != nil {
			logger.Warn(ctx, "Failed to drop session index entry", zap.String("session_id", id), zap.Error(err))
		}
	}
	return r.store.Delete(ctx, id)
}

// ListByUser returns the live sessions whose profile has the given id.
// Expired index entries are pruned.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Session, error) {
	key := userSessionsPrefix + userID
	ids, err := sessionIndexMembers(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err == domainerrors.ErrNotFound || (err == nil && (s.Profile == nil || s.Profile.ID != userID)) {
			_ = sessionIndexRemove(ctx, key, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
