package repositories

import (
	"context"

	"chamado.backend/internal/domain/entities"
)

// SessionRepository persists live sessions.
type SessionRepository interface {
	Save(ctx context.Context, session *entities.Session) error
	Get(ctx context.Context, id string) (*entities.Session, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*entities.Session, error)
}

// MissionCatalog is the read-only mission list.
type MissionCatalog interface {
	List(ctx context.Context) ([]*entities.Mission, error)
}
