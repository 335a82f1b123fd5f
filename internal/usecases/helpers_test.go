package usecases_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chamado.backend/internal/infrastructure/metrics"
	infrarepos "chamado.backend/internal/infrastructure/repositories"
	"chamado.backend/internal/usecases"
	"chamado.backend/pkg/jwt"
	redispkg "chamado.backend/pkg/redis"
)

const testEncryptionKey = "0000000000000000000000000000000000000000000000000000000000000000"

type stack struct {
	sessions   *usecases.SessionUsecase
	identities *infrarepos.IdentityStore
	accounts   *infrarepos.AccountRepository
	sessionRep *infrarepos.SessionRepository
	jwt        *jwt.JWTService
	metrics    *metrics.Metrics
}

// newStack wires the session controller over sqlite and miniredis.
func newStack(t *testing.T) *stack {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		srv.Close()
	})

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	kv := infrarepos.NewSQLKeyValueStore(db)
	require.NoError(t, kv.Migrate())

	store, err := redispkg.NewSessionStore(testEncryptionKey)
	require.NoError(t, err)

	s := &stack{
		identities: infrarepos.NewIdentityStore(kv),
		accounts:   infrarepos.NewAccountRepository(kv),
		sessionRep: infrarepos.NewSessionRepository(store, time.Hour),
		jwt:        jwt.NewJWTService("test-secret", 15*time.Minute, time.Hour),
		metrics:    metrics.New(),
	}
	s.sessions = usecases.NewSessionUsecase(s.identities, s.accounts, s.sessionRep, s.jwt, 0, s.metrics)
	return s
}
