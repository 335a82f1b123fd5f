package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/pkg/redis"
)

func newSessionRepo(t *testing.T) *SessionRepository {
	t.Helper()
	startMiniRedis(t)
	store, err := redis.NewSessionStore("0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	return NewSessionRepository(store, time.Hour)
}

func sessionFor(id, userID string) *entities.Session {
	return &entities.Session{
		ID:        id,
		Profile:   &entities.UserProfile{ID: userID, Name: "U", Email: "u@uou.com", Role: entities.UserRoleUser, EnrollmentStatus: entities.EnrollmentPending, PaymentStatus: entities.PaymentUnpaid},
		View:      entities.ViewDashboard,
		CreatedAt: time.Now(),
	}
}

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sessionFor("s1", "101")))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "101", got.Profile.ID)
	assert.Equal(t, entities.ViewDashboard, got.View)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.ErrorIs(t, repo.Save(ctx, &entities.Session{}), domainerrors.ErrInvalidInput)
}

func TestSessionRepository_ListByUser(t *testing.T) {
	repo := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sessionFor("s1", "101")))
	require.NoError(t, repo.Save(ctx, sessionFor("s2", "101")))
	require.NoError(t, repo.Save(ctx, sessionFor("s3", "102")))

	list, err := repo.ListByUser(ctx, "101")
	require.NoError(t, err)
	ids := []string{}
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	logout := sessionFor("s2", "101")
	logout.Profile = nil
	require.NoError(t, repo.Save(ctx, logout))

	list, err = repo.ListByUser(ctx, "101")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].ID)

	members, err := redis.SMembers(ctx, userSessionsPrefix+"101")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members)
}
