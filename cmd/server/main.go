package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chamado.backend/internal/config"
	domainrepos "chamado.backend/internal/domain/repositories"
	"chamado.backend/internal/infrastructure/catalog"
	"chamado.backend/internal/infrastructure/gemini"
	"chamado.backend/internal/infrastructure/jobs"
	"chamado.backend/internal/infrastructure/media"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/internal/infrastructure/repositories"
	"chamado.backend/internal/interfaces/http/handlers"
	"chamado.backend/internal/interfaces/http/middleware"
	"chamado.backend/internal/usecases"
	"chamado.backend/pkg/jwt"
	"chamado.backend/pkg/logger"
	"chamado.backend/pkg/redis"
)

const (
	serviceName    = "chamado-backend"
	serviceVersion = "1.0.0"
	redisKVPrefix  = "chamado:"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(driver string, cfg config.DatabaseConfig) (*gorm.DB, error) {
		switch driver {
		case config.StoragePostgres:
			return gorm.Open(postgres.New(postgres.Config{
				DSN:                  cfg.URL(),
				PreferSimpleProtocol: true,
			}), &gorm.Config{PrepareStmt: false})
		case config.StorageSQLite:
			return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
		}
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	newSessionStore = redis.NewSessionStore
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	serveHTTP       = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifyContext   = signal.NotifyContext
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

// openKeyValueStore returns the medium behind the identity store and the
// account list, and a function releasing it.
func openKeyValueStore(cfg *config.Config) (domainrepos.KeyValueStore, func(), error) {
	if cfg.Storage.Driver == config.StorageRedis {
		return repositories.NewRedisKeyValueStore(redisKVPrefix), func() {}, nil
	}

	db, err := openDB(cfg.Storage.Driver, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get generic database object: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("database not available: %w", err)
	}

	kv := repositories.NewSQLKeyValueStore(db)
	if err := kv.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to migrate key/value table: %w", err)
	}
	return kv, func() { _ = sqlDB.Close() }, nil
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	if cfg.Server.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.Server.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Server.LogLevel, err)
		}
		logger.SetLevel(lvl)
	}
	defer zap.RedirectStdLog(logger.GetLogger())()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer func() { _ = redis.GetClient().Close() }()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	kv, closeKV, err := openKeyValueStore(cfg)
	if err != nil {
		return err
	}
	defer closeKV()
	logger.Info(ctx, "Enrollment storage ready", zap.String("driver", cfg.Storage.Driver))

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	missions, err := catalog.Load(cfg.Missions.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load mission catalog: %w", err)
	}

	m := metrics.New()
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	// Repositories
	identities := repositories.NewIdentityStore(kv)
	accounts := repositories.NewAccountRepository(kv)
	sessionRepo := repositories.NewSessionRepository(sessionStore, cfg.JWT.RefreshExpiry)

	// Generative text and camera relay
	generator := gemini.NewClient(cfg.AI.GeminiAPIKey, cfg.AI.Model, cfg.AI.Timeout, m)
	if !generator.Configured() {
		logger.Warn(ctx, "Gemini API key not configured, generated texts will use fallbacks")
	}
	mediaSource := media.NewRelaySource(cfg.Capture.MaxRecordingBytes)

	// Usecases
	sessionUsecase := usecases.NewSessionUsecase(identities, accounts, sessionRepo, jwtService, cfg.Simulation.AuthDelay, m)
	enrollmentUsecase := usecases.NewEnrollmentUsecase(sessionUsecase, generator, mediaSource, cfg.Simulation.PaymentDelay, m)
	sessionUsecase.AttachWizards(enrollmentUsecase)
	adminUsecase := usecases.NewAdminUsecase(identities, missions, sessionUsecase, generator)

	// Handlers
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(m))

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r)
	registerMetricsRoute(r, m)
	registerAPIV1Routes(r, routeDeps{
		authHandler:       handlers.NewAuthHandler(sessionUsecase),
		sessionHandler:    handlers.NewSessionHandler(sessionUsecase, adminUsecase),
		enrollmentHandler: handlers.NewEnrollmentHandler(enrollmentUsecase, int64(cfg.Capture.MaxRecordingBytes)),
		adminHandler:      handlers.NewAdminHandler(adminUsecase),
		authMiddleware:    middleware.AuthMiddleware(jwtService),
		optionalAuth:      middleware.OptionalAuthMiddleware(jwtService),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	runCtx, stop := notifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweep := jobs.NewCaptureSweepJob(enrollmentUsecase, cfg.Capture.IdleTTL, cfg.Capture.SweepInterval)
	g.Go(func() error {
		sweep.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info(ctx, "Chamado backend starting", zap.String("port", cfg.Server.Port), zap.String("version", serviceVersion))
		err := serveHTTP(srv)
		stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return g.Wait()
}
