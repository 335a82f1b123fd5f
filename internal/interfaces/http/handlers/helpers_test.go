package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chamado.backend/internal/domain/entities"
	"chamado.backend/internal/infrastructure/catalog"
	"chamado.backend/internal/infrastructure/media"
	"chamado.backend/internal/infrastructure/metrics"
	infrarepos "chamado.backend/internal/infrastructure/repositories"
	"chamado.backend/internal/interfaces/http/middleware"
	"chamado.backend/internal/usecases"
	"chamado.backend/pkg/jwt"
	redispkg "chamado.backend/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedGenerator struct {
	consent  string
	insights string
}

func (g *fixedGenerator) GenerateConsentTerm(context.Context, entities.EnrollmentData) string {
	return g.consent
}

func (g *fixedGenerator) GenerateAdminInsights(context.Context, entities.InsightStats) string {
	return g.insights
}

type testAPI struct {
	router     *gin.Engine
	identities *infrarepos.IdentityStore
	enrollment *usecases.EnrollmentUsecase
}

// newTestAPI serves the handlers over sqlite and miniredis with no
// simulated delays.
func newTestAPI(t *testing.T) *testAPI {
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
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())), &gorm.Config{})
	require.NoError(t, err)
	kv := infrarepos.NewSQLKeyValueStore(db)
	require.NoError(t, kv.Migrate())

	store, err := redispkg.NewSessionStore("0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	missions, err := catalog.Load("")
	require.NoError(t, err)

	m := metrics.New()
	jwtService := jwt.NewJWTService("handler-secret", 15*time.Minute, time.Hour)
	identities := infrarepos.NewIdentityStore(kv)
	sessions := usecases.NewSessionUsecase(identities, infrarepos.NewAccountRepository(kv), infrarepos.NewSessionRepository(store, time.Hour), jwtService, 0, m)
	gen := &fixedGenerator{consent: "## TERMO\n**1.** Aceito.", insights: "1. Conversão alta."}
	enrollment := usecases.NewEnrollmentUsecase(sessions, gen, media.NewRelaySource(1<<20), 0, m)
	sessions.AttachWizards(enrollment)
	admin := usecases.NewAdminUsecase(identities, missions, sessions, gen)

	authH := NewAuthHandler(sessions)
	sessionH := NewSessionHandler(sessions, admin)
	enrollH := NewEnrollmentHandler(enrollment, 1<<16)
	adminH := NewAdminHandler(admin)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/signup", authH.Signup)
	api.POST("/auth/refresh", authH.RefreshToken)
	api.POST("/auth/logout", middleware.OptionalAuthMiddleware(jwtService), authH.Logout)

	p := api.Group("", middleware.AuthMiddleware(jwtService))
	p.GET("/session", sessionH.GetSession)
	p.PUT("/session/view", sessionH.SetView)
	p.POST("/briefing/progress", sessionH.BriefingProgress)
	p.GET("/missions", sessionH.Missions)
	p.GET("/payments/history", sessionH.PaymentHistory)

	e := p.Group("/enrollment")
	e.POST("", enrollH.Start)
	e.GET("", enrollH.Get)
	e.DELETE("", enrollH.Close)
	e.PATCH("/draft", enrollH.PatchDraft)
	e.POST("/next", enrollH.Next)
	e.POST("/back", enrollH.Back)
	e.POST("/payment", enrollH.SelectPayment)
	e.POST("/submit", middleware.IdempotencyMiddleware(), enrollH.Submit)
	e.GET("/consent.pdf", enrollH.ConsentPDF)
	e.POST("/capture/acquire", enrollH.AcquireCamera)
	e.POST("/capture/start", enrollH.StartRecording)
	e.POST("/capture/chunks", enrollH.AppendChunk)
	e.POST("/capture/stop", enrollH.StopRecording)
	e.POST("/capture/reset", enrollH.ResetCapture)
	e.GET("/capture", enrollH.GetCapture)
	e.GET("/capture/video", enrollH.Video)

	a := p.Group("/admin", middleware.RequireAdmin())
	a.GET("/users", adminH.ListUsers)
	a.GET("/users/:id", adminH.GetUser)
	a.PUT("/users/:id/status", adminH.UpdateUserStatus)
	a.POST("/users/:id/approve", adminH.ApproveUser)
	a.POST("/users/:id/reject", adminH.RejectUser)
	a.GET("/stats", adminH.GetStats)
	a.GET("/insights", adminH.GetInsights)
	a.GET("/dashboard", adminH.GetDashboard)
	a.GET("/payments", adminH.GetPayments)
	a.GET("/reports", adminH.GetReports)
	a.GET("/missions", adminH.ListMissions)

	return &testAPI{router: r, identities: identities, enrollment: enrollment}
}

type reqOpt func(*http.Request)

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (a *testAPI) do(method, path, token string, body interface{}, opts ...reqOpt) *httptest.ResponseRecorder {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthorizationHeader, middleware.BearerPrefix+token)
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login returns the access token of a fresh session.
func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var auth entities.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

// briefed logs in and finishes the briefing.
func (a *testAPI) briefed(t *testing.T, email string) string {
	t.Helper()
	token := a.login(t, email)
	w := a.do(http.MethodPost, "/api/v1/briefing/progress", token, gin.H{"currentTime": 1, "duration": 60, "ended": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
