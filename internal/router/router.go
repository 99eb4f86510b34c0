package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/focusloop/focusloop-backend/internal/config"
	"github.com/focusloop/focusloop-backend/internal/handler"
	"github.com/focusloop/focusloop-backend/internal/middleware"
	"github.com/focusloop/focusloop-backend/internal/response"
	"github.com/focusloop/focusloop-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Analytics *handler.AnalyticsHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.StudentLogin)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetProfile)
		auth.PUT("/me/profile", middleware.RequireStudentJWT(authService), handlers.Auth.UpdateProfile)
	}

	// ─── 2. Session Group (JWT + Single Device) ────────────────────────
	sessionAPI := router.Group("/api/v1/sessions")
	sessionAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		sessionAPI.POST("", handlers.Exam.CreateSession)
		sessionAPI.POST("/prewarm", handlers.Exam.PrewarmSession)
		sessionAPI.GET("/history", handlers.Exam.History)
		sessionAPI.GET("/:session_id", handlers.Exam.GetSession)
		sessionAPI.POST("/:session_id/start", handlers.Exam.StartSession)
		sessionAPI.POST("/:session_id/answer", handlers.Exam.ConfirmAnswer)
		sessionAPI.POST("/:session_id/seek", handlers.Exam.Seek)
		sessionAPI.POST("/:session_id/resume", handlers.Exam.Resume)
		sessionAPI.POST("/:session_id/finish", handlers.Exam.FinishSession)
		sessionAPI.GET("/:session_id/result", handlers.Exam.GetResult)
	}

	// ─── 3. Analytics Group (JWT + Single Device) ──────────────────────
	analyticsAPI := router.Group("/api/v1/analytics")
	analyticsAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		analyticsAPI.GET("/sessions/:session_id/attention", handlers.Analytics.GetAttention)
	}

	// ─── 4. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/sessions/:session_id/attention", handlers.WS.AttentionStream)
	}

	return router
}
