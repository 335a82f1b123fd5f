package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/internal/interfaces/http/handlers"
	"chamado.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler       *handlers.AuthHandler
	sessionHandler    *handlers.SessionHandler
	enrollmentHandler *handlers.EnrollmentHandler
	adminHandler      *handlers.AdminHandler
	authMiddleware    gin.HandlerFunc
	optionalAuth      gin.HandlerFunc
}

// applyCORSMiddleware echoes allowed origins and answers preflight requests.
// An entry of "*" allows any origin.
func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID, X-Idempotency-Hit")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/signup", d.authHandler.Signup)
			auth.POST("/refresh", d.authHandler.RefreshToken)
			auth.POST("/logout", d.optionalAuth, d.authHandler.Logout)
		}

		protected := v1.Group("")
		protected.Use(d.authMiddleware)
		{
			protected.GET("/session", d.sessionHandler.GetSession)
			protected.PUT("/session/view", d.sessionHandler.SetView)
			protected.POST("/briefing/progress", d.sessionHandler.BriefingProgress)
			protected.GET("/missions", d.sessionHandler.Missions)
			protected.GET("/payments/history", d.sessionHandler.PaymentHistory)
		}

		enrollment := protected.Group("/enrollment")
		{
			enrollment.POST("", d.enrollmentHandler.Start)
			enrollment.GET("", d.enrollmentHandler.Get)
			enrollment.DELETE("", d.enrollmentHandler.Close)
			enrollment.PATCH("/draft", d.enrollmentHandler.PatchDraft)
			enrollment.POST("/next", d.enrollmentHandler.Next)
			enrollment.POST("/back", d.enrollmentHandler.Back)
			enrollment.POST("/payment", d.enrollmentHandler.SelectPayment)
			enrollment.POST("/submit", middleware.IdempotencyMiddleware(), d.enrollmentHandler.Submit)
			enrollment.GET("/consent.pdf", d.enrollmentHandler.ConsentPDF)

			capture := enrollment.Group("/capture")
			capture.GET("", d.enrollmentHandler.GetCapture)
			capture.POST("/acquire", d.enrollmentHandler.AcquireCamera)
			capture.POST("/start", d.enrollmentHandler.StartRecording)
			capture.POST("/chunks", d.enrollmentHandler.AppendChunk)
			capture.POST("/stop", d.enrollmentHandler.StopRecording)
			capture.POST("/reset", d.enrollmentHandler.ResetCapture)
			capture.GET("/video", d.enrollmentHandler.Video)
		}

		// Admin routes
		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/users", d.adminHandler.ListUsers)
			admin.GET("/users/:id", d.adminHandler.GetUser)
			admin.PUT("/users/:id/status", d.adminHandler.UpdateUserStatus)
			admin.POST("/users/:id/approve", d.adminHandler.ApproveUser)
			admin.POST("/users/:id/reject", d.adminHandler.RejectUser)
			admin.GET("/stats", d.adminHandler.GetStats)
			admin.GET("/insights", d.adminHandler.GetInsights)
			admin.GET("/dashboard", d.adminHandler.GetDashboard)
			admin.GET("/payments", d.adminHandler.GetPayments)
			admin.GET("/reports", d.adminHandler.GetReports)
			admin.GET("/missions", d.adminHandler.ListMissions)
		}
	}
}
