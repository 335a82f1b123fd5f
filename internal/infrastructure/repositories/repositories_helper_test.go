package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chamado.backend/pkg/redis"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createStorageTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE storage_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func newSQLStore(t *testing.T) (*SQLKeyValueStore, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	createStorageTable(t, db)
	return NewSQLKeyValueStore(db), db
}

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redis.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		srv.Close()
	})
	return srv
}

// memoryKV is an in-memory KeyValueStore with injectable failures.
type memoryKV struct {
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}
