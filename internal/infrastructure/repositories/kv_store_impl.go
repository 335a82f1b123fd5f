package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainRepos "chamado.backend/internal/domain/repositories"
	"chamado.backend/internal/infrastructure/models"
	"chamado.backend/pkg/redis"
)

// SQLKeyValueStore keeps each key as a row of storage_entries.
type SQLKeyValueStore struct {
	db  *gorm.DB
	uow domainRepos.UnitOfWork
}

// NewSQLKeyValueStore creates a new SQL-backed key/value store
func NewSQLKeyValueStore(db *gorm.DB) *SQLKeyValueStore {
	return &SQLKeyValueStore{db: db, uow: NewUnitOfWork(db)}
}

// Do runs fn in a transaction shared by the Get and Set calls made with its ctx
func (s *SQLKeyValueStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.uow.Do(ctx, fn)
}

// Migrate creates the storage table when missing
func (s *SQLKeyValueStore) Migrate() error {
	return s.db.AutoMigrate(&models.StorageEntry{})
}

// Get reads a key. found is false when the row does not exist.
func (s *SQLKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var m models.StorageEntry
	if err := GetDB(ctx, s.db).WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return m.Value, true, nil
}

// Set writes the full value of a key
func (s *SQLKeyValueStore) Set(ctx context.Context, key, value string) error {
	now := time.Now()
	m := &models.StorageEntry{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}
	return GetDB(ctx, s.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(m).Error
}

// RedisKeyValueStore keeps each key as a plain Redis string without expiry.
type RedisKeyValueStore struct {
	prefix string
}

var (
	kvRedisGet = redis.Get
	kvRedisSet = redis.Set
)

// NewRedisKeyValueStore creates a new Redis-backed key/value store
func NewRedisKeyValueStore(prefix string) *RedisKeyValueStore {
	return &RedisKeyValueStore{prefix: prefix}
}

func (s *RedisKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := kvRedisGet(ctx, s.prefix+key)
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisKeyValueStore) Set(ctx context.Context, key, value string) error {
	return kvRedisSet(ctx, s.prefix+key, value, 0)
}
